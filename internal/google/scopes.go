package google

// DefaultOAuthScopes are the Google OAuth scopes beacon requests.
// Triage only reads mail, so the read-only Gmail scope is enough.
var DefaultOAuthScopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
}
