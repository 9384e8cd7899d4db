// Package webpush delivers browser push notifications over the Web Push
// protocol with VAPID authentication.
//
// The sender distinguishes permanently dead subscriptions (HTTP 404/410 from
// the push service) from transient failures so callers can evict stale
// registrations without retry loops.
package webpush
