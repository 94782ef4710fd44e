// Package resolver matches a free-text reference such as a sender, a
// subject fragment or a message id against the records of the last fetch.
//
// Each comma-separated identifier in the query scores every record:
// an exact id is worth the most, then a sender match, then subject, then
// snippet. A query resolves to one record only when exactly one record
// matched, when exactly one matched by id, or when the best score clearly
// beats the runner-up. Otherwise the caller gets a short candidate list
// to refine the request with.
package resolver
