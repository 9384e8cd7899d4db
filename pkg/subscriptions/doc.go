// Package subscriptions implements the push-subscription registry: one
// record per browser endpoint, upserted on subscribe, removed on explicit
// unsubscribe, on logout, or lazily when a delivery attempt reports the
// endpoint permanently gone.
package subscriptions
