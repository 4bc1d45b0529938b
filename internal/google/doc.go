// Package google handles OAuth2 authentication against Google for the
// Gmail fetcher.
//
// Tokens are stored per account under the user cache directory
// (~/.cache/beacon/google-<account>.token) so multiple Google accounts can
// be triaged independently. The OAuth client ID and secret come from the
// GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables.
//
// The flow is the CLI out-of-band flow: `beacon auth` prints the
// authorization URL, the user pastes the code back, and the exchanged token
// is cached with its refresh token for silent renewal.
package google
