// Package endpoint builds request URLs for the catalogue services.
package endpoint

import "strings"

// Service names a backing catalogue service.
type Service string

const (
	Movies Service = "movies"
	People Service = "people"
	Users  Service = "users"
)

// Services lists every backing service in a stable order.
var Services = []Service{Movies, People, Users}

// Default forwarding prefixes. Movies and people are mounted under /api by the
// forwarding layer; users paths are forwarded as-is.
const (
	DefaultMoviesPrefix = "/api"
	DefaultPeoplePrefix = "/api"
	DefaultUsersPrefix  = ""
)

// Target configures one service: an optional absolute base URL and the
// prefix used when requests go through the forwarding layer instead.
type Target struct {
	Base   string
	Prefix string
}

// Options holds the per-service targets.
type Options struct {
	Movies Target
	People Target
	Users  Target
}

// DefaultOptions returns forwarding-mode options for every service.
func DefaultOptions() Options {
	return Options{
		Movies: Target{Prefix: DefaultMoviesPrefix},
		People: Target{Prefix: DefaultPeoplePrefix},
		Users:  Target{Prefix: DefaultUsersPrefix},
	}
}

// Resolver composes service URLs. It is immutable after New.
type Resolver struct {
	targets map[Service]Target
}

// New normalizes the options once. Trailing slashes are removed from bases
// and prefixes.
func New(opts Options) *Resolver {
	normalize := func(t Target) Target {
		return Target{
			Base:   strings.TrimRight(strings.TrimSpace(t.Base), "/"),
			Prefix: strings.TrimRight(strings.TrimSpace(t.Prefix), "/"),
		}
	}
	return &Resolver{
		targets: map[Service]Target{
			Movies: normalize(opts.Movies),
			People: normalize(opts.People),
			Users:  normalize(opts.Users),
		},
	}
}

// URL returns base+path in direct mode and prefix+path in forwarding mode.
// A missing leading slash is added to path.
func (r *Resolver) URL(svc Service, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	t := r.targets[svc]
	if t.Base != "" {
		return t.Base + path
	}
	return t.Prefix + path
}

// Direct reports whether svc is reached through its configured base URL.
func (r *Resolver) Direct(svc Service) bool {
	return r.targets[svc].Base != ""
}

// Base returns the normalized base URL of svc, or "" in forwarding mode.
func (r *Resolver) Base(svc Service) string {
	return r.targets[svc].Base
}
