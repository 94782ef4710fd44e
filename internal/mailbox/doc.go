// Package mailbox defines the mail records and the backend interface shared
// by the capabilities and the Gmail and IMAP adapters.
//
// It also owns the continuation-token framing used in tool results, and
// small helpers for reply addressing and link extraction from HTML bodies.
package mailbox
