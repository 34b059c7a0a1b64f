// Package handler serves the edge filter over HTTP. It asks the filter for
// a decision, answers static outcomes directly, and streams proxied
// responses back with their status, headers and body unchanged.
package handler
