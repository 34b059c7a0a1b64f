package filter

// RouteTable maps a normalized path to a fixed response body.
// It is read-only after construction and safe for concurrent use.
type RouteTable struct {
	routes map[string]string
}

// DefaultRoutes returns the built-in static pages. The empty key matches
// the root path "/".
func DefaultRoutes() map[string]string {
	return map[string]string{
		"": "Hello world!",
	}
}

// NewRouteTable copies routes into a new table so later changes to the
// caller's map are not observed.
func NewRouteTable(routes map[string]string) *RouteTable {
	copied := make(map[string]string, len(routes))
	for loc, body := range routes {
		copied[loc] = body
	}

	return &RouteTable{routes: copied}
}

// Lookup returns the body registered for loc. Matching is exact.
func (t *RouteTable) Lookup(loc string) (string, bool) {
	if t == nil {
		return "", false
	}

	body, ok := t.routes[loc]
	return body, ok
}

// Len returns the number of static routes.
func (t *RouteTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.routes)
}
