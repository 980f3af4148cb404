// Package staticconfig extracts entrypoints and certificate resolvers from a
// Traefik static configuration (traefik.yml or traefik.toml).
// This is part of the Functional Core - parsing works on bytes, no I/O.
package staticconfig

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docker/go-connections/nat"
	"github.com/laebelmaker/laebelmaker/internal/core/traefik"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrInvalidStaticConfig = errors.New("invalid traefik static configuration")
	ErrUnsupportedFormat   = errors.New("unsupported config file format")
)

// =============================================================================
// Formats
// =============================================================================

// Format is a static configuration dialect.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath selects the dialect from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(path))) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: .yml, .yaml, .toml)", ErrUnsupportedFormat, path)
	}
}

// =============================================================================
// Parsing
// =============================================================================

// Parse decodes content in the given format and extracts discovery facts.
func Parse(content []byte, format Format) (*traefik.DiscoveredConfig, error) {
	var data map[string]any
	var err error

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(content, &data)
	case FormatTOML:
		err = toml.Unmarshal(content, &data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStaticConfig, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidStaticConfig)
	}

	return fromMap(data), nil
}

// fromMap accepts both camelCase and lowercase top-level keys.
func fromMap(data map[string]any) *traefik.DiscoveredConfig {
	entrypointsSection := section(data, "entryPoints", "entrypoints")
	resolversSection := section(data, "certificatesResolvers", "certificatesresolvers")

	entrypoints := make([]traefik.Entrypoint, 0, len(entrypointsSection))
	for name, raw := range entrypointsSection {
		ep := traefik.Entrypoint{Name: name}
		if fields, ok := raw.(map[string]any); ok {
			if address, ok := fields["address"]; ok {
				ep.Address = fmt.Sprint(address)
				ep.Port = AddressPort(ep.Address)
			}
		}
		entrypoints = append(entrypoints, ep)
	}

	resolvers := make([]string, 0, len(resolversSection))
	for name := range resolversSection {
		resolvers = append(resolvers, name)
	}
	sort.Strings(resolvers)

	return traefik.NewDiscoveredConfig(entrypoints, resolvers)
}

func section(data map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if value, ok := data[key].(map[string]any); ok {
			return value
		}
	}
	return nil
}

// AddressPort returns the TCP port of an entrypoint address such as ":80",
// "0.0.0.0:443" or ":443/tcp". Non-TCP or unparseable addresses give 0.
func AddressPort(address string) int {
	proto, hostPort := nat.SplitProtoPort(strings.TrimSpace(address))
	if hostPort == "" || !strings.EqualFold(proto, "tcp") {
		return 0
	}
	_, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return 0
	}
	port, err := nat.ParsePort(portStr)
	if err != nil {
		return 0
	}
	return port
}
