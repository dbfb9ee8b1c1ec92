// Package origin decides which cross-origin callers may reach the API with
// credentials. The decision logic is pure; applying it to responses is the
// middleware's job.
package origin

import (
	"net/url"
	"strings"
)

// Decision is the outcome of evaluating a request origin.
type Decision struct {
	// RequestOrigin is the origin the caller presented, possibly inferred
	// from the Host header when the Origin header was absent.
	RequestOrigin string
	// AllowOrigin is the value to send in Access-Control-Allow-Origin.
	AllowOrigin string
	// AllowCredentials indicates whether credentialed requests are allowed.
	// Never true together with a wildcard AllowOrigin.
	AllowCredentials bool
	// Rejected marks an unmatched origin in production. The response still
	// carries the fixed default origin, which the browser then refuses to
	// match against the caller's actual origin.
	Rejected bool
}

// Policy evaluates request origins against a configured allow-list.
type Policy struct {
	allowOrigins   map[string]struct{}
	trustedParents []string
	defaultOrigin  string
	production     bool
}

// NewPolicy creates a Policy.
//
// allowOrigins is a comma-separated list of exactly-matched origins.
// trustedParents is a comma-separated list of parent domains whose subdomains
// are trusted regardless of the allow-list. defaultOrigin is the fixed origin
// answered to unmatched callers in production.
func NewPolicy(allowOrigins, trustedParents, defaultOrigin string, production bool) *Policy {
	allowed := make(map[string]struct{})
	for _, origin := range splitList(allowOrigins) {
		allowed[origin] = struct{}{}
	}

	return &Policy{
		allowOrigins:   allowed,
		trustedParents: splitList(trustedParents),
		defaultOrigin:  defaultOrigin,
		production:     production,
	}
}

// Evaluate decides the cross-origin treatment for a single request.
//
// Matching order:
//  1. Exact allow-list match
//  2. Subdomain of a trusted parent domain
//  3. Non-production deployments echo any remaining origin back, so local
//     frontends on arbitrary ports keep working
//  4. Production answers the fixed default origin without credentials
//
// A request without an Origin header is treated as same-origin: the origin is
// inferred from the Host header, falling back to the default origin when the
// host is empty.
func (p *Policy) Evaluate(origin, host string) Decision {
	if origin == "" {
		inferred := p.defaultOrigin
		if host != "" {
			inferred = "https://" + host
		}
		// Only a trusted inferred origin gets credentials; the Host header
		// is caller-controlled.
		return Decision{
			RequestOrigin:    inferred,
			AllowOrigin:      inferred,
			AllowCredentials: p.isTrusted(inferred) && p.allowCredentialsFor(inferred),
		}
	}

	if _, ok := p.allowOrigins[origin]; ok {
		return Decision{
			RequestOrigin:    origin,
			AllowOrigin:      origin,
			AllowCredentials: true,
		}
	}

	if p.matchesTrustedParent(origin) {
		return Decision{
			RequestOrigin:    origin,
			AllowOrigin:      origin,
			AllowCredentials: true,
		}
	}

	if !p.production {
		return Decision{
			RequestOrigin:    origin,
			AllowOrigin:      origin,
			AllowCredentials: true,
		}
	}

	// Unmatched origin in production: answer the fixed default origin and
	// never credentials, so even a browser bug that matched the header could
	// not leak a credentialed response.
	return Decision{
		RequestOrigin:    origin,
		AllowOrigin:      p.defaultOrigin,
		AllowCredentials: false,
		Rejected:         true,
	}
}

// isTrusted reports whether the origin passes the same checks as an explicit
// Origin header: exact allow-list match or trusted parent suffix.
func (p *Policy) isTrusted(origin string) bool {
	if _, ok := p.allowOrigins[origin]; ok {
		return true
	}
	return p.matchesTrustedParent(origin)
}

// allowCredentialsFor keeps the wildcard-with-credentials combination out of
// responses, which browsers reject outright.
func (p *Policy) allowCredentialsFor(allowOrigin string) bool {
	return allowOrigin != "" && allowOrigin != "*"
}

// matchesTrustedParent reports whether the origin's hostname is the parent
// domain itself or any subdomain of it.
func (p *Policy) matchesTrustedParent(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Hostname() == "" {
		return false
	}

	hostname := strings.ToLower(parsed.Hostname())
	for _, parent := range p.trustedParents {
		parent = strings.ToLower(parent)
		if hostname == parent || strings.HasSuffix(hostname, "."+parent) {
			return true
		}
	}
	return false
}

// splitList parses a comma-separated list and trims whitespace.
func splitList(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
