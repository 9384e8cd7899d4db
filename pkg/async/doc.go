// Package async provides a small Future abstraction over goroutines.
//
// The notification engine uses it for best-effort delivery fan-out: a task is
// started per delivery target with Async, and SettleAll joins them without
// letting any single failure abort the rest.
package async
