// Package mongo provides connection helpers for the document store backing
// notification and push-subscription persistence.
package mongo
