// Package loader reads compose files and Traefik static configuration files
// from disk and hands their content to the pure parsers.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/laebelmaker/laebelmaker/internal/core/compose"
	"github.com/laebelmaker/laebelmaker/internal/core/staticconfig"
	"github.com/laebelmaker/laebelmaker/internal/core/traefik"
)

// ErrFileNotFound is returned when a path does not exist.
var ErrFileNotFound = errors.New("file not found")

// LoadStaticConfig reads a traefik.yml/traefik.toml and extracts entrypoints
// and certificate resolvers. The dialect is chosen by extension.
func LoadStaticConfig(path string) (*traefik.DiscoveredConfig, error) {
	format, err := staticconfig.FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	content, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := staticconfig.Parse(content, format)
	if err != nil {
		return nil, fmt.Errorf("traefik config %q: %w", path, err)
	}
	return cfg, nil
}

// LoadCompose reads and parses a compose file.
func LoadCompose(path string) (*compose.ParsedSpec, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}

	spec, err := compose.ParseComposeSpec(string(content))
	if err != nil {
		return nil, fmt.Errorf("compose file %q: %w", path, err)
	}
	return spec, nil
}

// HasYAMLExtension reports whether path names a .yml/.yaml file.
func HasYAMLExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	return ext == ".yml" || ext == ".yaml"
}

func readFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return content, nil
}
