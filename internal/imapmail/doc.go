// Package imapmail implements mailbox.Mailbox on IMAP for reading and SMTP
// for sending, authenticating both with an address and an app password.
//
// Each operation opens its own connection. Listing returns the newest
// messages of the configured mailbox first; the continuation token
// "uid:<n>" selects the UIDs below n. Record ids are UIDs and records carry
// no permalink.
package imapmail
