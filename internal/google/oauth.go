package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// OOB is the out-of-band redirect used by the CLI flow.
const OOB = "urn:ietf:wg:oauth:2.0:oob"

var accountNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateAccountName rejects names that would escape the cache directory
// or produce surprising file names.
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name must not be empty")
	}
	if !accountNameRe.MatchString(account) {
		return fmt.Errorf("account name %q may only contain letters, digits, '-' and '_'", account)
	}
	return nil
}

// getOAuthConfig returns the OAuth2 configuration for the Gmail scope.
func getOAuthConfig() (*oauth2.Config, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  OOB,
		Scopes:       DefaultOAuthScopes,
	}, nil
}

// GetAuthURL returns the OAuth URL for user authorization.
func GetAuthURL() (string, error) {
	conf, err := getOAuthConfig()
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL("state", oauth2.AccessTypeOffline), nil
}

// SaveToken exchanges an authorization code for tokens and caches them for
// the given account.
func SaveToken(ctx context.Context, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}

	conf, err := getOAuthConfig()
	if err != nil {
		return err
	}

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	tokenFile, err := tokenFilePath(account)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(tokenFile), 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tokenData := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(tokenFile, []byte(tokenData), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// HasTokenForAccount checks if a cached OAuth token exists for the account.
func HasTokenForAccount(account string) bool {
	tokenFile, err := tokenFilePath(account)
	if err != nil {
		return false
	}
	_, err = os.Stat(tokenFile)
	return err == nil
}

// GetTokenSource returns an OAuth2 token source for the cached token.
// The token is validated (and refreshed if needed) before returning.
func GetTokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	conf, err := getOAuthConfig()
	if err != nil {
		return nil, err
	}

	tokenFile, err := tokenFilePath(account)
	if err != nil {
		return nil, err
	}

	slurp, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("no Google OAuth token found for account %q, run `beacon auth` first", account)
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format in %s", tokenFile)
	}

	ts := conf.TokenSource(ctx, &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	})

	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("cached token for account %q is invalid: %w", account, err)
	}

	return ts, nil
}

// GetHTTPClient returns an HTTP client configured with OAuth2
// authentication for the account.
func GetHTTPClient(ctx context.Context, account string) (*http.Client, error) {
	ts, err := GetTokenSource(ctx, account)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func tokenFilePath(account string) (string, error) {
	if err := validateAccountName(account); err != nil {
		return "", err
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "beacon", "google-"+account+".token"), nil
}
