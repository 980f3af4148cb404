package traefik

import (
	"errors"
	"sync"
	"testing"

	"github.com/laebelmaker/laebelmaker/internal/core/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelStrings(labels []Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.String()
	}
	return out
}

func mustConfig(t *testing.T, in ServiceInput, discovered *DiscoveredConfig) ServiceConfig {
	t.Helper()
	cfg, err := NewServiceConfig(in, discovered)
	require.NoError(t, err)
	return cfg
}

// =============================================================================
// GenerateLabels Tests
// =============================================================================

func TestGenerateLabels_HTTPOnly(t *testing.T) {
	cfg := mustConfig(t, ServiceInput{
		Name:     "testapp",
		Hostname: "test",
		Port:     25565,
	}, nil)

	labels, err := GenerateLabels(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"enable=true",
		"routers.testapp.rule=Host(`test`)",
		"routers.testapp.entrypoints=web",
		"services.testapp.loadbalancer.server.port=25565",
	}, labelStrings(labels))
}

func TestGenerateLabels_HTTPSRedirect(t *testing.T) {
	cfg := mustConfig(t, ServiceInput{
		Name:                "testapp",
		Hostname:            "testapp-customname",
		Port:                80,
		HTTPSRedirect:       true,
		WebEntrypoint:       StringPtr("http"),
		WebsecureEntrypoint: StringPtr("https"),
		TLSResolver:         StringPtr("letsencrypt"),
	}, nil)

	labels, err := GenerateLabels(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"enable=true",
		"routers.testapp.rule=Host(`testapp-customname`)",
		"routers.testapp.entrypoints=http",
		"routers.testapp-https.rule=Host(`testapp-customname`)",
		"routers.testapp-https.entrypoints=https",
		"routers.testapp.middlewares=testapp-redir",
		"middlewares.testapp-redir.redirectscheme.scheme=https",
		"routers.testapp-https.tls=true",
		"routers.testapp-https.tls.certresolver=letsencrypt",
		"services.testapp.loadbalancer.server.port=80",
	}, labelStrings(labels))
}

func TestGenerateLabels_MissingResolver(t *testing.T) {
	cfg := mustConfig(t, ServiceInput{
		Name:          "testapp",
		Hostname:      "example.com",
		Port:          8080,
		HTTPSRedirect: true,
	}, NewDiscoveredConfig(nil, []string{"le", "zerossl"}))

	labels, err := GenerateLabels(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingResolver))
	assert.Nil(t, labels)

	var resolverErr *ResolverError
	require.True(t, errors.As(err, &resolverErr))
	assert.Equal(t, "testapp", resolverErr.Service)
}

func TestGenerateLabels_EmptyExplicitResolver(t *testing.T) {
	cfg := mustConfig(t, ServiceInput{
		Name:          "testapp",
		Hostname:      "example.com",
		Port:          8080,
		HTTPSRedirect: true,
		TLSResolver:   StringPtr(""),
	}, NewDiscoveredConfig(nil, []string{"le"}))

	_, err := GenerateLabels(cfg)
	assert.ErrorIs(t, err, ErrMissingResolver)
}

func TestGenerateLabels_PathKinds(t *testing.T) {
	prefix := mustConfig(t, ServiceInput{Name: "api", Path: "/api", Port: 3000}, nil)
	exact := mustConfig(t, ServiceInput{Name: "api", Path: "/api", PathMatch: PathMatchExact, Port: 3000}, nil)

	prefixLabels, err := GenerateLabels(prefix)
	require.NoError(t, err)
	exactLabels, err := GenerateLabels(exact)
	require.NoError(t, err)

	require.Len(t, prefixLabels, 4)
	require.Len(t, exactLabels, 4)
	assert.Equal(t, "PathPrefix(`/api`)", prefixLabels[1].Value)
	assert.Equal(t, "Path(`/api`)", exactLabels[1].Value)

	for i := range prefixLabels {
		assert.Equal(t, prefixLabels[i].Key, exactLabels[i].Key)
	}
}

func TestGenerateLabels_HostAndPath(t *testing.T) {
	cfg := mustConfig(t, ServiceInput{
		Name:     "shop",
		Hostname: "example.com",
		Path:     "/shop",
		Port:     8000,
	}, nil)

	labels, err := GenerateLabels(cfg)
	require.NoError(t, err)
	assert.Equal(t, "(Host(`example.com`) && PathPrefix(`/shop`))", labels[1].Value)
}

func TestGenerateLabels_CombinedRuleReused(t *testing.T) {
	host, err := rule.Host("example.com")
	require.NoError(t, err)
	beta, err := rule.Headers("X-Beta", "1")
	require.NoError(t, err)

	cfg := ServiceConfig{
		Name:                "app",
		Rule:                host.And(beta),
		Port:                80,
		HTTPSRedirect:       true,
		WebEntrypoint:       "web",
		WebsecureEntrypoint: "websecure",
		TLSResolver:         StringPtr("le"),
	}

	labels, err := GenerateLabels(cfg)
	require.NoError(t, err)

	expected := "(Host(`example.com`) && Headers(`X-Beta`, `1`))"
	assert.Equal(t, expected, labels[1].Value)
	assert.Equal(t, expected, labels[3].Value)
}

func TestGenerateLabels_Idempotent(t *testing.T) {
	cfg := mustConfig(t, ServiceInput{
		Name:          "testapp",
		Hostname:      "example.com",
		Path:          "/app",
		Port:          80,
		HTTPSRedirect: true,
		TLSResolver:   StringPtr("le"),
	}, nil)

	first, err := GenerateLabels(cfg)
	require.NoError(t, err)
	second, err := GenerateLabels(cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateLabels_Concurrent(t *testing.T) {
	cfg := mustConfig(t, ServiceInput{
		Name:          "testapp",
		Hostname:      "example.com",
		Port:          80,
		HTTPSRedirect: true,
		TLSResolver:   StringPtr("le"),
	}, nil)

	expected, err := GenerateLabels(cfg)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]Label, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = GenerateLabels(cfg)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, expected, got)
	}
}

func TestGenerateLabels_HandBuiltInvalid(t *testing.T) {
	host, err := rule.Host("example.com")
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  ServiceConfig
	}{
		{"empty name", ServiceConfig{Rule: host, Port: 80}},
		{"zero rule", ServiceConfig{Name: "app", Port: 80}},
		{"zero port", ServiceConfig{Name: "app", Rule: host}},
		{"port too high", ServiceConfig{Name: "app", Rule: host, Port: 70000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := GenerateLabels(tt.cfg)
			assert.ErrorIs(t, err, ErrConfigValidation)
			assert.Nil(t, labels)
		})
	}
}

func TestGenerateLabels_LabelCount(t *testing.T) {
	// Without HTTPS: 4 labels
	plain := mustConfig(t, ServiceInput{Name: "web", Hostname: "test.com", Port: 80}, nil)
	labels, err := GenerateLabels(plain)
	require.NoError(t, err)
	assert.Len(t, labels, 4)

	// With HTTPS: 10 labels
	secure := mustConfig(t, ServiceInput{
		Name:          "web",
		Hostname:      "test.com",
		Port:          80,
		HTTPSRedirect: true,
		TLSResolver:   StringPtr("le"),
	}, nil)
	labels, err = GenerateLabels(secure)
	require.NoError(t, err)
	assert.Len(t, labels, 10)
}

// =============================================================================
// Generate Tests
// =============================================================================

func TestGenerate(t *testing.T) {
	set, err := Generate(ServiceInput{Name: "whoami", Hostname: "whoami.local", Port: 80}, nil)
	require.NoError(t, err)

	assert.Equal(t, "whoami", set.Title)
	assert.Equal(t, "enable=true", set.Strings()[0])
	assert.Len(t, set.Labels, 4)
}

func TestGenerate_PropagatesErrors(t *testing.T) {
	_, err := Generate(ServiceInput{Name: "whoami", Port: 80}, nil)
	assert.ErrorIs(t, err, ErrConfigValidation)

	_, err = Generate(ServiceInput{Name: "whoami", Hostname: "a`b", Port: 80}, nil)
	assert.ErrorIs(t, err, rule.ErrInvalidRule)

	_, err = Generate(ServiceInput{Name: "whoami", Hostname: "a.b", Port: 80, HTTPSRedirect: true}, nil)
	assert.ErrorIs(t, err, ErrMissingResolver)
}
