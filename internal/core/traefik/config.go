package traefik

import (
	"regexp"
	"strings"

	"github.com/laebelmaker/laebelmaker/internal/core/rule"
)

// =============================================================================
// Service Config Construction
// =============================================================================

// MaxPort is the highest valid TCP port.
const MaxPort = 65535

// namePattern restricts names to characters that keep label keys splittable.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// NewServiceConfig validates raw input, builds the match rule and fills
// entrypoint/resolver gaps from discovered (which may be nil).
func NewServiceConfig(in ServiceInput, discovered *DiscoveredConfig) (ServiceConfig, error) {
	if err := validateInput(in); err != nil {
		return ServiceConfig{}, err
	}

	r, err := buildRule(in)
	if err != nil {
		return ServiceConfig{}, err
	}

	web, websecure, resolver := AutoFill(in, discovered)

	return ServiceConfig{
		Name:                in.Name,
		Rule:                r,
		Port:                in.Port,
		HTTPSRedirect:       in.HTTPSRedirect,
		WebEntrypoint:       web,
		WebsecureEntrypoint: websecure,
		TLSResolver:         resolver,
	}, nil
}

func validateInput(in ServiceInput) error {
	if err := ValidateName(in.Name); err != nil {
		return err
	}
	if in.Port <= 0 || in.Port > MaxPort {
		return NewValidationError(in.Name, "port", "must be between 1 and 65535")
	}
	if in.Hostname == "" && in.Path == "" {
		return NewValidationError(in.Name, "hostname", "a hostname or a path is required")
	}
	if in.Path != "" && !strings.HasPrefix(in.Path, "/") {
		return NewValidationError(in.Name, "path", "must start with '/'")
	}
	return nil
}

// ValidateName checks that name can be used as a router name.
func ValidateName(name string) error {
	if name == "" {
		return NewValidationError("", "name", "must not be empty")
	}
	if !namePattern.MatchString(name) {
		return NewValidationError(name, "name", "may only contain letters, digits, '-' and '_'")
	}
	return nil
}

// SanitizeName turns an arbitrary container or service name into a valid
// router name, e.g. "/my.app" becomes "my-app". It may return "".
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimLeft(name, "/") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.TrimLeft(b.String(), "-_")
}

func buildRule(in ServiceInput) (rule.Rule, error) {
	var hostRule, pathRule rule.Rule
	var err error

	if in.Hostname != "" {
		if hostRule, err = rule.Host(in.Hostname); err != nil {
			return rule.Rule{}, err
		}
	}
	if in.Path != "" {
		if in.PathMatch == PathMatchExact {
			pathRule, err = rule.Path(in.Path)
		} else {
			pathRule, err = rule.PathPrefix(in.Path)
		}
		if err != nil {
			return rule.Rule{}, err
		}
	}

	return rule.And(hostRule, pathRule), nil
}

// =============================================================================
// Auto-fill
// =============================================================================

// AutoFill resolves entrypoints and resolver for in. Explicit values always
// win; otherwise the port-80/port-443 entrypoints and the sole declared
// resolver of discovered are used; otherwise the conventional names and no
// resolver.
func AutoFill(in ServiceInput, discovered *DiscoveredConfig) (web, websecure string, resolver *string) {
	switch {
	case in.WebEntrypoint != nil:
		web = *in.WebEntrypoint
	default:
		web = DefaultWebEntrypoint
		if name, ok := discovered.EntrypointForPort(HTTPPort); ok {
			web = name
		}
	}

	switch {
	case in.WebsecureEntrypoint != nil:
		websecure = *in.WebsecureEntrypoint
	default:
		websecure = DefaultWebsecureEntrypoint
		if name, ok := discovered.EntrypointForPort(HTTPSPort); ok {
			websecure = name
		}
	}

	switch {
	case in.TLSResolver != nil:
		value := *in.TLSResolver
		resolver = &value
	default:
		if name, ok := discovered.SoleResolver(); ok {
			resolver = &name
		}
	}

	return web, websecure, resolver
}

// StringPtr returns a pointer to s, for ServiceInput overrides.
func StringPtr(s string) *string {
	return &s
}
