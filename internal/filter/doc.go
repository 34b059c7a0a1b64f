// Package filter decides what happens to an inbound request at the edge.
//
// A request is classified by method and path only: disallowed methods are
// rejected, robots.txt and a small table of static pages are answered
// directly, and paths naming the allowed upstream host are marked for
// proxying. Everything else is forbidden. The package does no I/O.
package filter
