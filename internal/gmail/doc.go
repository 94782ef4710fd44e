// Package gmail implements mailbox.Mailbox on the Gmail REST API.
//
// Listing pages through Users.Messages.List and fetches each message in full
// with a bounded number of concurrent requests. The page keeps the order of
// the listing; a message whose fetch fails is logged and skipped. Sending
// builds an RFC 2822 message and, for replies, threads it onto the source
// message with In-Reply-To, References and the Gmail thread id.
//
// Authentication is handled by the google package:
//
//	auth, _ := google.NewAuth(conf, "default", "")
//	httpClient, _ := auth.HTTPClient(ctx)
//	client, err := gmail.NewClient(ctx, httpClient, gmail.Options{})
package gmail
