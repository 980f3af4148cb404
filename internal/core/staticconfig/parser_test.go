package staticconfig

import (
	"errors"
	"testing"

	"github.com/laebelmaker/laebelmaker/internal/core/traefik"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Fixtures
// =============================================================================

const yamlConfig = `
entryPoints:
  http:
    address: ":80"
  https:
    address: ":443"
  metrics:
    address: ":8082"

certificatesResolvers:
  myresolver:
    acme:
      email: admin@example.com
      storage: acme.json
      httpChallenge:
        entryPoint: http
`

const tomlConfig = `
[entryPoints]
  [entryPoints.web]
    address = "0.0.0.0:80"
  [entryPoints.websecure]
    address = "0.0.0.0:443/tcp"

[certificatesResolvers.le.acme]
  email = "admin@example.com"
  storage = "acme.json"

[certificatesResolvers.zerossl.acme]
  email = "admin@example.com"
`

const lowercaseYAMLConfig = `
entrypoints:
  plain:
    address: ":80"
certificatesresolvers:
  only:
    acme: {}
`

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_YAML(t *testing.T) {
	cfg, err := Parse([]byte(yamlConfig), FormatYAML)
	require.NoError(t, err)

	require.Len(t, cfg.Entrypoints, 3)
	assert.Equal(t, traefik.Entrypoint{Name: "http", Address: ":80", Port: 80}, cfg.Entrypoints[0])
	assert.Equal(t, traefik.Entrypoint{Name: "https", Address: ":443", Port: 443}, cfg.Entrypoints[1])
	assert.Equal(t, "metrics", cfg.Entrypoints[2].Name)
	assert.Equal(t, []string{"myresolver"}, cfg.CertResolvers)

	web, websecure, resolver := traefik.AutoFill(traefik.ServiceInput{}, cfg)
	assert.Equal(t, "http", web)
	assert.Equal(t, "https", websecure)
	require.NotNil(t, resolver)
	assert.Equal(t, "myresolver", *resolver)
}

func TestParse_TOML(t *testing.T) {
	cfg, err := Parse([]byte(tomlConfig), FormatTOML)
	require.NoError(t, err)

	require.Len(t, cfg.Entrypoints, 2)
	assert.Equal(t, "web", cfg.Entrypoints[0].Name)
	assert.Equal(t, 80, cfg.Entrypoints[0].Port)
	assert.Equal(t, "websecure", cfg.Entrypoints[1].Name)
	assert.Equal(t, 443, cfg.Entrypoints[1].Port)
	assert.Equal(t, []string{"le", "zerossl"}, cfg.CertResolvers)

	// Two resolvers are ambiguous.
	_, _, resolver := traefik.AutoFill(traefik.ServiceInput{}, cfg)
	assert.Nil(t, resolver)
}

func TestParse_LowercaseKeys(t *testing.T) {
	cfg, err := Parse([]byte(lowercaseYAMLConfig), FormatYAML)
	require.NoError(t, err)

	require.Len(t, cfg.Entrypoints, 1)
	assert.Equal(t, "plain", cfg.Entrypoints[0].Name)
	assert.Equal(t, []string{"only"}, cfg.CertResolvers)
}

func TestParse_NoSections(t *testing.T) {
	cfg, err := Parse([]byte("log:\n  level: DEBUG\n"), FormatYAML)
	require.NoError(t, err)

	assert.Empty(t, cfg.Entrypoints)
	assert.Empty(t, cfg.CertResolvers)
}

func TestParse_EntrypointWithoutAddress(t *testing.T) {
	cfg, err := Parse([]byte("entryPoints:\n  web: {}\n"), FormatYAML)
	require.NoError(t, err)

	require.Len(t, cfg.Entrypoints, 1)
	assert.Equal(t, 0, cfg.Entrypoints[0].Port)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  Format
	}{
		{"empty yaml", "", FormatYAML},
		{"yaml list root", "- a\n- b\n", FormatYAML},
		{"broken yaml", "entryPoints: [[[", FormatYAML},
		{"broken toml", "[entryPoints\naddress = ", FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), tt.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidStaticConfig))
		})
	}
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := Parse([]byte(yamlConfig), Format("json"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// =============================================================================
// FormatFromPath Tests
// =============================================================================

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
	}{
		{"traefik.yml", FormatYAML},
		{"/etc/traefik/traefik.yaml", FormatYAML},
		{"TRAEFIK.YML", FormatYAML},
		{"traefik.toml", FormatTOML},
		{"  conf/traefik.Toml  ", FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := FormatFromPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestFormatFromPath_Unsupported(t *testing.T) {
	for _, path := range []string{"traefik.json", "traefik", "yaml_file.txt"} {
		_, err := FormatFromPath(path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, "path %q", path)
	}
}

// =============================================================================
// AddressPort Tests
// =============================================================================

func TestAddressPort(t *testing.T) {
	tests := []struct {
		address  string
		expected int
	}{
		{":80", 80},
		{"0.0.0.0:80", 80},
		{":443/tcp", 443},
		{"[::]:443", 443},
		{":443/udp", 0},
		{":8080", 8080},
		{"", 0},
		{"80", 0},
		{":http", 0},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.expected, AddressPort(tt.address))
		})
	}
}
