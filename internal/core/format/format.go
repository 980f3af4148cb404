// Package format qualifies labels with the Traefik namespace and renders
// label sets as text, docker run flags or YAML.
package format

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/laebelmaker/laebelmaker/internal/core/traefik"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for an unregistered formatter name.
var ErrUnknownFormat = errors.New("unknown output format")

const (
	rootPrefix = "traefik."
	httpPrefix = "traefik.http."
)

// Qualify returns the full label key=value, e.g. traefik.enable=true or
// traefik.http.routers.web.rule=Host(`a.com`).
func Qualify(l traefik.Label) string {
	return QualifyKey(l.Key) + "=" + l.Value
}

// QualifyKey prefixes an engine key with its Traefik namespace.
func QualifyKey(key string) string {
	if key == "enable" {
		return rootPrefix + key
	}
	return httpPrefix + key
}

// =============================================================================
// Formatters
// =============================================================================

// Formatter renders one label set.
type Formatter func(labels []traefik.Label) (string, error)

var formatters = map[string]Formatter{
	"none":    None,
	"docker":  Docker,
	"yaml":    YAML,
	"compose": Compose,
}

// Names returns the registered formatter names, sorted.
func Names() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the formatter registered under name.
func Lookup(name string) (Formatter, error) {
	f, ok := formatters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (one of: %s)", ErrUnknownFormat, name, strings.Join(Names(), ", "))
	}
	return f, nil
}

// None puts each label on its own line.
func None(labels []traefik.Label) (string, error) {
	var b strings.Builder
	for _, l := range labels {
		b.WriteString(Qualify(l))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Docker renders `docker run` label options, single-quoted for a POSIX shell.
func Docker(labels []traefik.Label) (string, error) {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = "--label '" + strings.ReplaceAll(Qualify(l), "'", `'\''`) + "'"
	}
	return strings.Join(parts, " ") + "\n", nil
}

// YAML renders a sequence of key=value strings, indented for pasting under a
// compose service's labels key.
func YAML(labels []traefik.Label) (string, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, l := range labels {
		seq.Content = append(seq.Content, stringNode(Qualify(l)))
	}

	out, err := encode(seq)
	if err != nil {
		return "", err
	}
	return indent(out, "  "), nil
}

// Compose renders a labels mapping with keys in emission order.
func Compose(labels []traefik.Label) (string, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, l := range labels {
		mapping.Content = append(mapping.Content, stringNode(QualifyKey(l.Key)), stringNode(l.Value))
	}
	doc := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{stringNode("labels"), mapping},
	}
	return encode(doc)
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func encode(node *yaml.Node) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	return buf.String(), nil
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" || line == "\n" {
			b.WriteString(line)
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}
	return b.String()
}

// =============================================================================
// Output Framing
// =============================================================================

// Render frames every non-empty set with START/END markers.
func Render(sets []traefik.LabelSet, f Formatter) (string, error) {
	var b strings.Builder
	for _, set := range sets {
		if len(set.Labels) == 0 {
			continue
		}
		body, err := f(set.Labels)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "--START GENERATED LABELS FOR '%s'--\n", set.Title)
		b.WriteString(body)
		fmt.Fprintf(&b, "--END GENERATED LABELS FOR '%s'--\n", set.Title)
	}
	return b.String(), nil
}
