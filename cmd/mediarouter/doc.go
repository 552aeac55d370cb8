// Package main hosts the mediarouter CLI entrypoint and command graph.
//
// The Cobra-based command tree wraps internal/router: convert runs a
// single file through the search, serve exposes the same search over
// HTTP, and cache inspects or clears the format cache and path store.
package main
