package compose

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"github.com/docker/go-connections/nat"
	"gopkg.in/yaml.v3"
)

// projectName is the placeholder project name used while loading in memory.
const projectName = "laebelmaker"

// =============================================================================
// Parser Functions
// =============================================================================

// ParseComposeSpec parses Docker Compose YAML into a ParsedSpec.
// This is a pure function - no I/O, no side effects.
// Input: raw YAML string
// Output: ParsedSpec struct or error
func ParseComposeSpec(yamlContent string) (*ParsedSpec, error) {
	// Input validation
	if strings.TrimSpace(yamlContent) == "" {
		return nil, ErrEmptyInput
	}

	// Parse using compose-go
	project, err := loadComposeSpec(yamlContent)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if len(project.Services) == 0 {
		return nil, ErrNoServices
	}

	spec := &ParsedSpec{
		Services: make([]Service, 0, len(project.Services)),
	}

	for _, svc := range project.Services {
		converted, err := convertService(svc)
		if err != nil {
			return nil, err
		}
		spec.Services = append(spec.Services, converted)
	}

	// compose-go keeps services in a map
	sort.Slice(spec.Services, func(i, j int) bool {
		return spec.Services[i].Name < spec.Services[j].Name
	})

	if err := validatePorts(spec.Services); err != nil {
		return nil, err
	}

	return spec, nil
}

// loadComposeSpec loads a compose spec using compose-go
func loadComposeSpec(yamlContent string) (*types.Project, error) {
	// Parse YAML into a map first
	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &dict); err != nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	// Check if it's a valid object
	if dict == nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	// A file without services is reported before compose-go rejects it as empty
	if services, ok := dict["services"]; !ok || services == nil {
		return nil, NewParseError("services", "no services defined", ErrNoServices)
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: []byte(yamlContent),
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName(projectName, false)
		opts.SkipValidation = false
		opts.SkipInterpolation = false // Enable interpolation for proper type parsing
		// Don't resolve paths since we're in-memory
		opts.SkipNormalization = true
		opts.SkipExtends = true // Don't try to load external files
	})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "image") && strings.Contains(errStr, "build") {
			return nil, NewParseError("", "service must have image or build", ErrServiceNoImage)
		}
		return nil, NewParseError("", errStr, ErrInvalidYAML)
	}

	return project, nil
}

// convertService converts a compose-go service to our Service type
func convertService(svc types.ServiceConfig) (Service, error) {
	service := Service{
		Name:   svc.Name,
		Image:  svc.Image,
		Labels: make(map[string]string),
	}

	// Build config
	if svc.Build != nil {
		service.Build = &BuildConfig{
			Context:    svc.Build.Context,
			Dockerfile: svc.Build.Dockerfile,
		}
	}

	// Validate image or build
	if service.Image == "" && service.Build == nil {
		return Service{}, NewParseError("services."+svc.Name, "service must have image or build", ErrServiceNoImage)
	}

	// Ports
	for i, p := range svc.Ports {
		// Published ranges such as "8000-8010" are left to compose-go.
		if pub, err := strconv.ParseUint(p.Published, 10, 32); err == nil && pub > 65535 {
			field := "services." + svc.Name + ".ports[" + strconv.Itoa(i) + "]"
			return Service{}, NewParseError(field, "published port must be <= 65535", ErrServiceInvalidPort)
		}
		service.Ports = append(service.Ports, Port{
			Target:   p.Target,
			Protocol: p.Protocol,
		})
	}

	service.Expose = append(service.Expose, svc.Expose...)

	// Labels
	for k, v := range svc.Labels {
		service.Labels[k] = v
	}

	return service, nil
}

// validatePorts validates all port configurations
func validatePorts(services []Service) error {
	for _, svc := range services {
		for i, port := range svc.Ports {
			field := "services." + svc.Name + ".ports[" + strconv.Itoa(i) + "]"
			if port.Target == 0 {
				return NewParseError(field, "target port cannot be 0", ErrServiceInvalidPort)
			}
			if port.Target > 65535 {
				return NewParseError(field, "target port must be <= 65535", ErrServiceInvalidPort)
			}
		}
	}
	return nil
}

// =============================================================================
// Port Candidates
// =============================================================================

// CandidatePorts returns the distinct TCP container ports a router could
// target: published port targets first, then exposed ports, in declaration
// order. For an exposed range only its first port is used.
func (s Service) CandidatePorts() []int {
	seen := make(map[int]bool)
	var ports []int
	add := func(port int) {
		if port > 0 && !seen[port] {
			seen[port] = true
			ports = append(ports, port)
		}
	}

	for _, p := range s.Ports {
		if p.Protocol == "" || strings.EqualFold(p.Protocol, "tcp") {
			add(int(p.Target))
		}
	}

	for _, raw := range s.Expose {
		proto, port := nat.SplitProtoPort(raw)
		if !strings.EqualFold(proto, "tcp") {
			continue
		}
		start, _, err := nat.ParsePortRangeToInt(port)
		if err != nil {
			continue
		}
		add(start)
	}

	return ports
}
