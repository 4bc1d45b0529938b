// Package gmail fetches messages through the Gmail API and maps them onto
// the provider-neutral mail.Message model.
//
// The client authenticates with the per-account OAuth token from the google
// package. Listing paginates through matching message IDs up to the
// configured limit; each message is then fetched in full format and its
// payload tree walked for the first text/plain and text/html parts. Bodies
// arrive base64url-encoded per the Gmail API and are decoded here.
package gmail
