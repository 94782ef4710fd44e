// Package cmd implements the command-line interface for mailpilot.
//
// This package provides the following commands:
//   - chat: Interactive shell with fetch, next, send and reply shortcuts
//   - ask: Run a single request and print the answer
//   - serve: Start the MCP server over stdio
//   - auth: Authorize the Gmail backend and store secrets in the keyring
//   - version: Display version information
//
// The chat command is the default command when no subcommand is specified.
package cmd
