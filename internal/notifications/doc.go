// Package notifications delivers the documents_inserted webhook.
//
// Delivery is a single best-effort POST: callers log failures and move on,
// and a disabled configuration yields a no-op Service. Certificate checks are
// relaxed only when trust_self_signed is set and the URL points back at this
// host, and only for this package's HTTP client.
package notifications
