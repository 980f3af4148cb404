package traefik

import (
	"sort"

	"github.com/laebelmaker/laebelmaker/internal/core/rule"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultWebEntrypoint is the conventional plain-HTTP entrypoint name.
	DefaultWebEntrypoint = "web"
	// DefaultWebsecureEntrypoint is the conventional HTTPS entrypoint name.
	DefaultWebsecureEntrypoint = "websecure"

	// HTTPPort and HTTPSPort identify conventional entrypoints by listening port.
	HTTPPort  = 80
	HTTPSPort = 443
)

// =============================================================================
// Service Input and Config
// =============================================================================

// PathMatch selects how a path is matched.
type PathMatch int

const (
	// PathMatchPrefix matches the path and everything below it (PathPrefix).
	PathMatchPrefix PathMatch = iota
	// PathMatchExact matches the path string exactly (Path).
	PathMatchExact
)

// ServiceInput holds raw fields collected by an adapter.
type ServiceInput struct {
	// Name is the router/service/middleware name root.
	Name string

	// Hostname is the host to match (optional if Path is set).
	Hostname string

	// Path is the path to match (optional if Hostname is set).
	Path string

	// PathMatch chooses Path or PathPrefix for Path.
	PathMatch PathMatch

	// Port is the backend container port.
	Port int

	// HTTPSRedirect adds a secure router and an HTTP to HTTPS redirect.
	HTTPSRedirect bool

	// Explicit overrides. Nil means unset and eligible for auto-fill.
	WebEntrypoint       *string
	WebsecureEntrypoint *string
	TLSResolver         *string
}

// ServiceConfig is a validated description of one routable service.
// Construct it with NewServiceConfig.
type ServiceConfig struct {
	Name                string
	Rule                rule.Rule
	Port                int
	HTTPSRedirect       bool
	WebEntrypoint       string
	WebsecureEntrypoint string

	// TLSResolver is nil when no resolver could be determined.
	TLSResolver *string
}

// =============================================================================
// Discovered Proxy Config
// =============================================================================

// Entrypoint is a named proxy listener.
type Entrypoint struct {
	Name    string
	Address string
	Port    int // 0 when the address has no parseable port
}

// DiscoveredConfig holds facts read from the proxy's static configuration.
type DiscoveredConfig struct {
	Entrypoints   []Entrypoint
	CertResolvers []string
}

// NewDiscoveredConfig creates a DiscoveredConfig with entrypoints sorted by
// name and resolvers sorted and deduplicated.
func NewDiscoveredConfig(entrypoints []Entrypoint, resolvers []string) *DiscoveredConfig {
	eps := append([]Entrypoint(nil), entrypoints...)
	sort.SliceStable(eps, func(i, j int) bool { return eps[i].Name < eps[j].Name })

	seen := make(map[string]bool)
	var res []string
	for _, r := range resolvers {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		res = append(res, r)
	}
	sort.Strings(res)

	return &DiscoveredConfig{
		Entrypoints:   eps,
		CertResolvers: res,
	}
}

// EntrypointForPort returns the name of the entrypoint bound to port.
// When several match, the first by name wins.
func (d *DiscoveredConfig) EntrypointForPort(port int) (string, bool) {
	if d == nil {
		return "", false
	}
	best := ""
	for _, ep := range d.Entrypoints {
		if ep.Port == port && (best == "" || ep.Name < best) {
			best = ep.Name
		}
	}
	return best, best != ""
}

// SoleResolver returns the resolver name if exactly one is declared.
func (d *DiscoveredConfig) SoleResolver() (string, bool) {
	if d == nil || len(d.CertResolvers) != 1 {
		return "", false
	}
	return d.CertResolvers[0], true
}

// =============================================================================
// Labels
// =============================================================================

// Label is one unqualified key/value directive, e.g.
// routers.web.rule=Host(`example.com`).
type Label struct {
	Key   string
	Value string
}

// String returns key=value.
func (l Label) String() string {
	return l.Key + "=" + l.Value
}

// LabelSet is the ordered output for one service.
type LabelSet struct {
	Title  string
	Labels []Label
}

// Strings returns the labels as key=value strings.
func (s LabelSet) Strings() []string {
	out := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		out[i] = l.String()
	}
	return out
}
