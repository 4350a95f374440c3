// Package memory holds in-memory store implementations backing tests and
// local runs without Postgres. All stores are safe for concurrent use.
package memory
