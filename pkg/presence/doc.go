// Package presence maintains the transient user-id to connection-set mapping
// used for targeted realtime broadcast.
//
// Membership is never persisted: a connection joins its user's group after a
// successful authenticated handshake and leaves on disconnect. Broadcasting
// to a user with no connections is a no-op. The hub never blocks on a slow
// consumer; it drops events for that connection instead.
package presence
