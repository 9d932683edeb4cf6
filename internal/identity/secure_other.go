//go:build !darwin

package identity

func init() {
	// No system keychain on this platform; SecureStore falls back to the
	// file store for every key.
	secureTokens = nil
}
