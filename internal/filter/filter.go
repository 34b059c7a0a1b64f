package filter

import (
	"net/http"
	"strings"
)

// DefaultAllowedHost is the only upstream the filter proxies to by default.
const DefaultAllowedHost = "userstorage.mega.co.nz"

// RobotsBody is served for /robots.txt and disallows every crawler.
const RobotsBody = "User-agent: *\nDisallow: /"

type Outcome string

const (
	OutcomeMethodNotAllowed Outcome = "method_not_allowed"
	OutcomeRobots           Outcome = "robots"
	OutcomeStatic           Outcome = "static"
	OutcomeProxy            Outcome = "proxy"
	OutcomeForbidden        Outcome = "forbidden"
)

// Decision is the result of classifying a request. Target is only set for
// OutcomeProxy and holds the literal URL to fetch.
type Decision struct {
	Outcome Outcome
	Status  int
	Body    string
	Target  string
}

// Filter classifies requests against a static route table and an allowed
// upstream host substring.
type Filter struct {
	routes      *RouteTable
	allowedHost string
}

func New(routes *RouteTable, allowedHost string) *Filter {
	return &Filter{
		routes:      routes,
		allowedHost: allowedHost,
	}
}

// AllowedHost returns the substring a path must contain to be proxied.
func (f *Filter) AllowedHost() string {
	return f.allowedHost
}

// Normalize removes the first "/" from path and nothing else, so
// "//host/x" becomes "/host/x".
func Normalize(path string) string {
	return strings.Replace(path, "/", "", 1)
}

// Decide classifies a request by its method and escaped URL path.
func (f *Filter) Decide(method, path string) Decision {
	if method != http.MethodGet && method != http.MethodHead {
		return Decision{
			Outcome: OutcomeMethodNotAllowed,
			Status:  http.StatusMethodNotAllowed,
			Body:    "405",
		}
	}

	loc := Normalize(path)

	if loc == "robots.txt" {
		return Decision{
			Outcome: OutcomeRobots,
			Status:  http.StatusOK,
			Body:    RobotsBody,
		}
	}

	// Static pages answer with 404 on purpose.
	if body, ok := f.routes.Lookup(loc); ok {
		return Decision{
			Outcome: OutcomeStatic,
			Status:  http.StatusNotFound,
			Body:    body,
		}
	}

	if f.allowedHost != "" && strings.Contains(loc, f.allowedHost) {
		return Decision{
			Outcome: OutcomeProxy,
			Target:  loc,
		}
	}

	return Decision{
		Outcome: OutcomeForbidden,
		Status:  http.StatusForbidden,
		Body:    "403",
	}
}
