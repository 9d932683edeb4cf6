package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclerk/clerk/internal/api"
	"github.com/openclerk/clerk/internal/identity"
)

var (
	authEmail    string
	authPassword string
	authName     string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authEmail == "" || authPassword == "" {
			return fmt.Errorf("--email and --password are required")
		}

		ids, err := newIdentityStore()
		if err != nil {
			return err
		}
		client := newAPIClient(ids)

		resp, err := client.Login(cmd.Context(), api.LoginRequest{
			Email:    authEmail,
			Password: authPassword,
		})
		if err != nil {
			return err
		}

		fmt.Printf("👋 Welcome back, %s\n", displayName(&resp.User))
		if resp.SessionID != "" {
			fmt.Println("Your shopping session moved to your account.")
		}
		return nil
	},
}

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a store account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authEmail == "" || authPassword == "" {
			return fmt.Errorf("--email and --password are required")
		}

		ids, err := newIdentityStore()
		if err != nil {
			return err
		}
		client := newAPIClient(ids)

		resp, err := client.Register(cmd.Context(), api.RegisterRequest{
			Email:    authEmail,
			Password: authPassword,
			Name:     authName,
		})
		if err != nil {
			return err
		}

		fmt.Printf("🎉 Account created for %s\n", displayName(&resp.User))
		return nil
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out, keeping the guest shopping session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := newIdentityStore()
		if err != nil {
			return err
		}
		if err := newAPIClient(ids).Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out. Your cart is still here.")
		return nil
	},
}

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := newIdentityStore()
		if err != nil {
			return err
		}

		token, err := ids.Get(identity.KeyAccessToken)
		if err != nil || token == "" {
			fmt.Println("Not logged in (guest session).")
		} else if info := identity.InspectToken(token); info != nil {
			name := info.Name
			if name == "" {
				name = info.Email
			}
			if name == "" {
				name = info.Subject
			}
			fmt.Printf("Logged in as %s\n", name)
			if !info.Expiry.IsZero() {
				if info.Expired(time.Now()) {
					fmt.Println("⚠️  The access token has expired; log in again.")
				} else {
					fmt.Printf("Token expires %s\n", info.Expiry.Format(time.RFC1123))
				}
			}
		} else {
			fmt.Println("Logged in (opaque access token).")
		}

		if sid, err := ids.Get(identity.KeySessionID); err == nil && sid != "" {
			fmt.Printf("Session: %s\n", sid)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email")
		c.Flags().StringVar(&authPassword, "password", "", "Account password")
	}
	registerCmd.Flags().StringVar(&authName, "name", "", "Display name")
}

func displayName(user *api.AuthUser) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}
