// Package mail_tools implements the fetchEmails and sendEmail capabilities.
//
// fetchEmails lists a page of messages, stores the raw records for later
// replies, and returns them categorized as JSON with a framed continuation
// token. sendEmail sends a new message or, given a reply identifier,
// resolves it against the stored records and answers that message. Every
// failure is reported as the capability's text result.
package mail_tools
