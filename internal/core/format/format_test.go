package format

import (
	"strings"
	"testing"

	"github.com/laebelmaker/laebelmaker/internal/core/traefik"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Test Fixtures
// =============================================================================

func fixtureLabels(t *testing.T) []traefik.Label {
	t.Helper()
	set, err := traefik.Generate(traefik.ServiceInput{
		Name:     "testapp",
		Hostname: "test",
		Port:     25565,
	}, nil)
	require.NoError(t, err)
	return set.Labels
}

var qualifiedFixture = []string{
	"traefik.enable=true",
	"traefik.http.routers.testapp.rule=Host(`test`)",
	"traefik.http.routers.testapp.entrypoints=web",
	"traefik.http.services.testapp.loadbalancer.server.port=25565",
}

// =============================================================================
// Qualify Tests
// =============================================================================

func TestQualify(t *testing.T) {
	assert.Equal(t, "traefik.enable=true", Qualify(traefik.Label{Key: "enable", Value: "true"}))
	assert.Equal(t,
		"traefik.http.middlewares.a-redir.redirectscheme.scheme=https",
		Qualify(traefik.Label{Key: "middlewares.a-redir.redirectscheme.scheme", Value: "https"}),
	)
}

// =============================================================================
// Formatter Tests
// =============================================================================

func TestNone(t *testing.T) {
	out, err := None(fixtureLabels(t))
	require.NoError(t, err)

	assert.Equal(t, strings.Join(qualifiedFixture, "\n")+"\n", out)
}

func TestDocker(t *testing.T) {
	out, err := Docker(fixtureLabels(t))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "--label 'traefik.enable=true' --label "))
	assert.Equal(t, 4, strings.Count(out, "--label '"))
	assert.True(t, strings.HasSuffix(out, "port=25565'\n"))
}

func TestDocker_EscapesSingleQuotes(t *testing.T) {
	out, err := Docker([]traefik.Label{
		{Key: "routers.app.rule", Value: "Header(`X-Name`, `it's`)"},
	})
	require.NoError(t, err)

	assert.Equal(t, "--label 'traefik.http.routers.app.rule=Header(`X-Name`, `it'\\''s`)'\n", out)
}

func TestYAML(t *testing.T) {
	out, err := YAML(fixtureLabels(t))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "  - traefik.enable=true\n"))
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		assert.True(t, strings.HasPrefix(line, "  - "), "line %q", line)
	}

	var decoded []string
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, qualifiedFixture, decoded)
}

func TestCompose(t *testing.T) {
	out, err := Compose(fixtureLabels(t))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "labels:\n"))

	var decoded map[string]map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	labels := decoded["labels"]
	assert.Equal(t, "true", labels["traefik.enable"])
	assert.Equal(t, "Host(`test`)", labels["traefik.http.routers.testapp.rule"])
	assert.Equal(t, "25565", labels["traefik.http.services.testapp.loadbalancer.server.port"])

	// Emission order is preserved.
	enable := strings.Index(out, "traefik.enable")
	rule := strings.Index(out, "traefik.http.routers.testapp.rule")
	port := strings.Index(out, "traefik.http.services.testapp.loadbalancer.server.port")
	assert.Less(t, enable, rule)
	assert.Less(t, rule, port)
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"none", "docker", "yaml", "compose", " YAML "} {
		f, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := Lookup("json")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"compose", "docker", "none", "yaml"}, Names())
}

// =============================================================================
// Render Tests
// =============================================================================

func TestRender_SingleSet(t *testing.T) {
	sets := []traefik.LabelSet{{Title: "myapp", Labels: []traefik.Label{{Key: "enable", Value: "true"}}}}

	out, err := Render(sets, None)
	require.NoError(t, err)

	assert.Equal(t,
		"--START GENERATED LABELS FOR 'myapp'--\ntraefik.enable=true\n--END GENERATED LABELS FOR 'myapp'--\n",
		out,
	)
}

func TestRender_SkipsEmptySets(t *testing.T) {
	sets := []traefik.LabelSet{
		{Title: "app1", Labels: []traefik.Label{{Key: "enable", Value: "true"}}},
		{Title: "app2"},
		{Title: "app3", Labels: []traefik.Label{{Key: "enable", Value: "true"}}},
	}

	out, err := Render(sets, None)
	require.NoError(t, err)

	assert.Contains(t, out, "'app1'")
	assert.NotContains(t, out, "'app2'")
	assert.Contains(t, out, "'app3'")
}

func TestRender_Empty(t *testing.T) {
	out, err := Render(nil, None)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}
