// Package google handles OAuth2 for the Gmail backend.
//
// The OAuth client comes from a client-secret JSON file created in the
// Google Cloud console. Tokens are stored as JSON, one file per account name,
// under the user cache directory (mailpilot/google-<account>.token), and
// refreshed tokens are written back.
package google
