package compose

import "strings"

// =============================================================================
// ParsedSpec - Main Output Type
// =============================================================================

// ParsedSpec represents the routable parts of a Docker Compose specification.
// Services are sorted by name.
type ParsedSpec struct {
	Services []Service `json:"services"`
}

// Service looks up a service by name.
func (s *ParsedSpec) Service(name string) (Service, bool) {
	for _, svc := range s.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return Service{}, false
}

// ServiceNames returns the service names in order.
func (s *ParsedSpec) ServiceNames() []string {
	names := make([]string, len(s.Services))
	for i, svc := range s.Services {
		names[i] = svc.Name
	}
	return names
}

// =============================================================================
// Service Types
// =============================================================================

// Service represents a single service definition.
type Service struct {
	Name   string            `json:"name"`
	Image  string            `json:"image,omitempty"`
	Build  *BuildConfig      `json:"build,omitempty"`
	Ports  []Port            `json:"ports,omitempty"`
	Expose []string          `json:"expose,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// BuildConfig represents build configuration (optional).
type BuildConfig struct {
	Context    string `json:"context"`
	Dockerfile string `json:"dockerfile,omitempty"`
}

// Port is the container side of a port mapping. The host side never
// affects routing.
type Port struct {
	Target   uint32 `json:"target"`             // Container port
	Protocol string `json:"protocol,omitempty"` // tcp, udp
}

// TraefikLabelPrefix is the namespace of labels Traefik reads.
const TraefikLabelPrefix = "traefik."

// HasTraefikLabels reports whether the service already declares Traefik labels.
func (s Service) HasTraefikLabels() bool {
	for key := range s.Labels {
		if strings.HasPrefix(key, TraefikLabelPrefix) {
			return true
		}
	}
	return false
}
