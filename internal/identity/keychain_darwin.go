//go:build darwin

package identity

import (
	"errors"

	"github.com/keybase/go-keychain"
)

func init() {
	// Route the access token through the macOS Keychain
	secureTokens = &KeychainStore{}
}

// KeychainStore holds the access token in the macOS Keychain.
type KeychainStore struct{}

// Get retrieves a credential from the macOS Keychain.
func (k *KeychainStore) Get(account string) (string, error) {
	query := keychain.NewItem()
	query.SetSecClass(keychain.SecClassGenericPassword)
	query.SetService(ServiceName)
	query.SetAccount(account)
	query.SetMatchLimit(keychain.MatchLimitOne)
	query.SetReturnData(true)

	results, err := keychain.QueryItem(query)
	if err != nil {
		if errors.Is(err, keychain.ErrorItemNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if len(results) == 0 {
		return "", ErrNotFound
	}

	return string(results[0].Data), nil
}

// Set stores a credential in the macOS Keychain.
// If the credential already exists, it is updated.
func (k *KeychainStore) Set(account, value string) error {
	// First, try to delete any existing item
	_ = k.Delete(account) // Ignore ErrNotFound

	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(ServiceName)
	item.SetAccount(account)
	item.SetLabel(ServiceName + " - " + account)
	item.SetData([]byte(value))
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlocked)

	err := keychain.AddItem(item)
	if errors.Is(err, keychain.ErrorDuplicateItem) {
		// Item already exists, try to update it using UpdateItem
		return k.updateItem(account, value)
	}
	return err
}

// updateItem updates an existing keychain item.
func (k *KeychainStore) updateItem(account, value string) error {
	query := keychain.NewItem()
	query.SetSecClass(keychain.SecClassGenericPassword)
	query.SetService(ServiceName)
	query.SetAccount(account)

	update := keychain.NewItem()
	update.SetData([]byte(value))

	return keychain.UpdateItem(query, update)
}

// Delete removes a credential from the macOS Keychain.
func (k *KeychainStore) Delete(account string) error {
	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(ServiceName)
	item.SetAccount(account)

	err := keychain.DeleteItem(item)
	if errors.Is(err, keychain.ErrorItemNotFound) {
		return ErrNotFound
	}
	return err
}

// IsSupported reports that the keychain is available.
func (k *KeychainStore) IsSupported() bool {
	return true
}
