package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/google/shlex"
	"github.com/reeflective/readline"
	"github.com/spf13/cobra"

	"github.com/openclerk/clerk/internal/api"
	"github.com/openclerk/clerk/internal/chat"
	"github.com/openclerk/clerk/internal/config"
	"github.com/openclerk/clerk/internal/logging"
	"github.com/openclerk/clerk/internal/render"
	"github.com/openclerk/clerk/internal/shopper"
)

var oncePrompt string

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the store assistant",
	Long: `Start an interactive chat with the store assistant.

The assistant can search products, manage your cart, and check your
orders. Your session and cart survive restarts.

Use --once to send a single message and exit:
  clerk chat --once "do you have leather boots?"

Commands (interactive mode only):
  /cart              - Show the cart
  /add <p> <v> <qty> - Add a product variant to the cart
  /checkout ...      - Place an order
  /quit, /exit       - Leave the chat
  /help              - Show available commands`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&oncePrompt, "once", "", "Send a single message and exit (non-interactive mode)")
}

// transcriptPrinter renders finalized assistant turns exactly once.
type transcriptPrinter struct {
	mu        sync.Mutex
	converter *render.Converter
	printed   map[string]bool
}

func newTranscriptPrinter() *transcriptPrinter {
	return &transcriptPrinter{
		converter: render.DefaultConverter(),
		printed:   map[string]bool{},
	}
}

// printNew writes assistant turns that finished since the last call.
// Streaming turns wait until their end frame.
func (p *transcriptPrinter) printNew(turns []chat.Turn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, turn := range turns {
		if turn.Role != chat.RoleAssistant || turn.Streaming || p.printed[turn.ID] {
			continue
		}
		p.printed[turn.ID] = true
		p.printTurn(turn)
	}
}

// markExisting records turns already shown (e.g. loaded history).
func (p *transcriptPrinter) markExisting(turns []chat.Turn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, turn := range turns {
		p.printed[turn.ID] = true
	}
}

func (p *transcriptPrinter) printTurn(turn chat.Turn) {
	label := "assistant"
	if turn.Agent != "" {
		label = turn.Agent
	}
	fmt.Printf("\n%s> %s\n", label, p.converter.PlainText(turn.Text))
	for _, action := range turn.SuggestedActions {
		fmt.Printf("   💡 %s\n", action.Label)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	logger := logging.CLI()
	isOnceMode := oncePrompt != ""

	ids, err := newIdentityStore()
	if err != nil {
		return err
	}
	client := newAPIClient(ids)
	sh := shopper.New(client, ids, newDialer(ids), shopper.Options{
		HistoryLimit: cfg.Chat.HistoryLimit,
		Stream:       cfg.Chat.Stream,
		Typing:       cfg.Chat.Typing,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		if !isOnceMode {
			fmt.Println("\n\n👋 Leaving the store...")
		}
		cancel()
	}()

	printer := newTranscriptPrinter()
	done := make(chan struct{})
	responded := make(chan struct{}, 1)
	sh.OnUpdate = func() {
		select {
		case <-done:
			return
		default:
		}
		turns := sh.Turns()
		printer.printNew(turns)
		if n := len(turns); n > 0 && turns[n-1].Role == chat.RoleAssistant && !turns[n-1].Streaming {
			select {
			case responded <- struct{}{}:
			default:
			}
		}
	}
	sup := sh.Supervisor()
	sup.OnStateChange = func(state chat.State) {
		if !isOnceMode && state != chat.Connected {
			logger.Info("Chat connection state changed", "state", state.String())
		}
	}

	if err := sh.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer func() {
		close(done)
		sh.Close()
	}()

	// Pick up settings edits while the chat is open.
	if cfgPath != "" {
		watcher, err := config.NewWatcher(cfgPath, func(next *config.Config) {
			sh.SetSendFlags(next.Chat.Stream, next.Chat.Typing)
			logger.Info("Configuration reloaded", "path", cfgPath)
		}, logger)
		if err == nil {
			watcher.Start()
			defer watcher.Close()
		}
	}

	if isOnceMode {
		printer.markExisting(sh.Turns())
		if err := sh.Send(oncePrompt); err != nil {
			return err
		}
		select {
		case <-responded:
		case <-ctx.Done():
		}
		return nil
	}

	// Replay the stored conversation before prompting.
	history := sh.Turns()
	for _, turn := range history {
		if turn.Role == chat.RoleUser {
			fmt.Printf("you> %s\n", turn.Text)
		} else {
			printer.printTurn(turn)
		}
	}
	printer.markExisting(history)

	return runChatLoop(ctx, sh)
}

// slashCommands defines the available slash commands with their descriptions.
var slashCommands = []struct {
	name        string
	description string
}{
	{"/help", "Show available commands"},
	{"/cart", "Show the cart"},
	{"/add", "Add to cart: /add <product-id> <variant-id> <quantity>"},
	{"/update", "Change quantity: /update <item-id> <quantity>"},
	{"/remove", "Remove a cart line: /remove <item-id>"},
	{"/products", "Search the catalog: /products <query>"},
	{"/orders", "List your orders"},
	{"/checkout", "Place an order: /checkout <name> <line1> <city> <state> <postal> <country> <token>"},
	{"/quit", "Leave the chat"},
	{"/exit", "Leave the chat (alias)"},
}

func runChatLoop(ctx context.Context, sh *shopper.Shopper) error {
	rl := readline.NewShell()
	rl.Prompt.Primary(func() string { return "you> " })

	history := readline.NewInMemoryHistory()
	rl.History.Add("default", history)

	rl.Completer = func(line []rune, cursor int) readline.Completions {
		return completeInput(string(line), cursor)
	}

	fmt.Println("\n🛍️  Ask the assistant anything. Use /help for commands, /quit to leave.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				fmt.Println("\n👋 Goodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleSlashCommand(ctx, sh, line); quit {
				return nil
			}
			continue
		}

		if err := sh.Send(line); err != nil {
			fmt.Printf("❌ %v\n", err)
		}
	}
}

// handleSlashCommand runs one slash command; it reports whether the REPL
// should exit.
func handleSlashCommand(ctx context.Context, sh *shopper.Shopper, line string) bool {
	parts, err := shlex.Split(strings.TrimPrefix(line, "/"))
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return false
	}
	if len(parts) == 0 {
		return false
	}
	args := parts[1:]

	switch strings.ToLower(parts[0]) {
	case "quit", "exit", "q":
		fmt.Println("👋 Goodbye!")
		return true

	case "help", "h", "?":
		printChatHelp()

	case "cart":
		cart, err := sh.RefreshCart(ctx)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return false
		}
		printCart(cart)

	case "add":
		if len(args) != 3 {
			fmt.Println("Usage: /add <product-id> <variant-id> <quantity>")
			return false
		}
		quantity, err := strconv.Atoi(args[2])
		if err != nil || quantity <= 0 {
			fmt.Println("Quantity must be a positive number.")
			return false
		}
		cart, err := sh.AddToCart(ctx, args[0], args[1], quantity)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return false
		}
		printCart(cart)

	case "update":
		if len(args) != 2 {
			fmt.Println("Usage: /update <item-id> <quantity>")
			return false
		}
		quantity, err := strconv.Atoi(args[1])
		if err != nil || quantity <= 0 {
			fmt.Println("Quantity must be a positive number.")
			return false
		}
		cart, err := sh.UpdateCartItem(ctx, args[0], quantity)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return false
		}
		printCart(cart)

	case "remove":
		if len(args) != 1 {
			fmt.Println("Usage: /remove <item-id>")
			return false
		}
		cart, err := sh.RemoveCartItem(ctx, args[0])
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return false
		}
		printCart(cart)

	case "products":
		query := strings.Join(args, " ")
		products, _, err := sh.SearchProducts(ctx, api.ProductQuery{Query: query})
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return false
		}
		if len(products) == 0 {
			fmt.Println("No products found.")
			return false
		}
		for _, p := range products {
			fmt.Printf("  %s  %s  %.2f %s\n", p.ID, p.Name, p.Price, p.Currency)
		}

	case "orders":
		orders := sh.Orders()
		if len(orders) == 0 {
			fmt.Println("No orders yet in this conversation. Try asking the assistant.")
			return false
		}
		for _, o := range orders {
			fmt.Printf("  %s  %s  %.2f %s\n", o.ID, o.Status, o.Total, o.Currency)
		}

	case "checkout":
		if len(args) != 7 {
			fmt.Println("Usage: /checkout <name> <line1> <city> <state> <postal> <country> <payment-token>")
			return false
		}
		order, err := sh.Checkout(ctx, api.CheckoutRequest{
			ShippingAddress: api.ShippingAddress{
				Name: args[0], Line1: args[1], City: args[2],
				State: args[3], PostalCode: args[4], Country: args[5],
			},
			PaymentMethod: api.PaymentMethod{Type: "card", Token: args[6]},
		})
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return false
		}
		fmt.Printf("🎉 Order placed: %s (%s), total %.2f %s\n", order.ID, order.Status, order.Total, order.Currency)

	default:
		fmt.Printf("❓ Unknown command: /%s (use /help for available commands)\n", parts[0])
	}
	return false
}

func printChatHelp() {
	fmt.Println("\nAvailable commands:")
	for _, c := range slashCommands {
		fmt.Printf("  %-10s %s\n", c.name, c.description)
	}
	fmt.Println(`
Tips:
  - Type a message and press Enter to talk to the assistant
  - Quote arguments with spaces: /checkout "Jo Doe" "1 Main St" ...
  - Use Tab to autocomplete slash commands`)
}

// completeInput provides tab completion for slash commands.
func completeInput(line string, cursor int) readline.Completions {
	if cursor > len(line) {
		cursor = len(line)
	}
	text := line[:cursor]

	if !strings.HasPrefix(text, "/") {
		return readline.Completions{}
	}

	pairs := make([]string, 0, len(slashCommands)*2)
	for _, cmd := range slashCommands {
		if strings.HasPrefix(cmd.name, text) {
			pairs = append(pairs, cmd.name, cmd.description)
		}
	}
	if len(pairs) == 0 {
		return readline.Completions{}
	}

	return readline.CompleteValuesDescribed(pairs...).
		Tag("commands").
		NoSpace('/')
}
