package identity

// secretStore is the platform secure credential store, set by the
// platform-specific init() function (nil when unsupported).
var secureTokens secretStore

// secretStore holds single credentials keyed by account name.
type secretStore interface {
	Get(account string) (string, error)
	Set(account, value string) error
	Delete(account string) error
	IsSupported() bool
}

// keychain account name for the access token.
const accountAccessToken = "access-token"

// SecureStore layers the platform credential store over a fallback Store:
// the access token goes to the keychain when available, everything else
// (and every platform without a keychain) uses the fallback.
type SecureStore struct {
	fallback Store
}

// NewSecureStore wraps fallback with platform credential storage.
func NewSecureStore(fallback Store) *SecureStore {
	return &SecureStore{fallback: fallback}
}

// Get retrieves a value, preferring the keychain for the access token.
func (s *SecureStore) Get(key string) (string, error) {
	if key == KeyAccessToken && secureTokens != nil && secureTokens.IsSupported() {
		return secureTokens.Get(accountAccessToken)
	}
	return s.fallback.Get(key)
}

// Set stores a value, preferring the keychain for the access token.
// An empty value removes the entry.
func (s *SecureStore) Set(key, value string) error {
	if key == KeyAccessToken && secureTokens != nil && secureTokens.IsSupported() {
		if value == "" {
			err := secureTokens.Delete(accountAccessToken)
			if err == ErrNotFound {
				return nil
			}
			return err
		}
		return secureTokens.Set(accountAccessToken, value)
	}
	return s.fallback.Set(key, value)
}
