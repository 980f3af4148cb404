// Package rule models Traefik HTTP router rules.
//
// A Rule is either a matcher leaf (Host, Path, PathPrefix, Headers) or a
// logical AND/OR node over two Rules. Trees are built bottom-up from values,
// so they are finite and acyclic, and combining never mutates an operand.
// All functions are pure.
package rule

import (
	"strings"
)

// =============================================================================
// Kinds and Operators
// =============================================================================

// Kind is the matcher function of a leaf rule.
type Kind uint8

const (
	KindHost Kind = iota + 1
	KindPath
	KindPathPrefix
	KindHeaders
)

var kindNames = map[Kind]string{
	KindHost:       "Host",
	KindPath:       "Path",
	KindPathPrefix: "PathPrefix",
	KindHeaders:    "Headers",
}

// String returns the router-expression function name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Arity is the number of arguments a matcher of this kind takes.
func (k Kind) Arity() int {
	if k == KindHeaders {
		return 2
	}
	return 1
}

// Operator joins two rules.
type Operator uint8

const (
	OpAnd Operator = iota + 1
	OpOr
)

// String returns the expression token for the operator.
func (o Operator) String() string {
	switch o {
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// =============================================================================
// Rule
// =============================================================================

type tag uint8

const (
	tagMatch tag = iota + 1
	tagAnd
	tagOr
)

// Rule is a router rule tree. The zero value is the empty rule.
type Rule struct {
	tag   tag
	kind  Kind
	args  []string
	left  *Rule
	right *Rule
}

// New creates a leaf rule, checking arity and arguments.
func New(kind Kind, args ...string) (Rule, error) {
	if _, ok := kindNames[kind]; !ok {
		return Rule{}, NewRuleError("", "unknown rule type")
	}
	if len(args) != kind.Arity() {
		if kind == KindHeaders {
			return Rule{}, NewRuleError(kind.String(), "requires exactly a key and a value")
		}
		return Rule{}, NewRuleError(kind.String(), "requires exactly one value")
	}
	for _, arg := range args {
		if arg == "" {
			return Rule{}, NewRuleError(kind.String(), "arguments must not be empty")
		}
		// Values are emitted inside backticks without escaping.
		if strings.Contains(arg, "`") {
			return Rule{}, NewRuleError(kind.String(), "arguments must not contain backticks")
		}
	}

	return Rule{
		tag:  tagMatch,
		kind: kind,
		args: append([]string(nil), args...),
	}, nil
}

// Host matches the request host.
func Host(host string) (Rule, error) {
	return New(KindHost, host)
}

// Path matches the exact request path.
func Path(path string) (Rule, error) {
	return New(KindPath, path)
}

// PathPrefix matches request paths starting with prefix.
func PathPrefix(prefix string) (Rule, error) {
	return New(KindPathPrefix, prefix)
}

// Headers matches requests carrying header key with value.
func Headers(key, value string) (Rule, error) {
	return New(KindHeaders, key, value)
}

// And combines two rules with &&. If either side is empty the other is
// returned unchanged.
func And(left, right Rule) Rule {
	return combine(tagAnd, left, right)
}

// Or combines two rules with ||. If either side is empty the other is
// returned unchanged.
func Or(left, right Rule) Rule {
	return combine(tagOr, left, right)
}

func combine(t tag, left, right Rule) Rule {
	if left.IsZero() {
		return right
	}
	if right.IsZero() {
		return left
	}
	return Rule{tag: t, left: &left, right: &right}
}

// And returns r && other.
func (r Rule) And(other Rule) Rule {
	return And(r, other)
}

// Or returns r || other.
func (r Rule) Or(other Rule) Rule {
	return Or(r, other)
}

// =============================================================================
// Accessors
// =============================================================================

// IsZero reports whether r is the empty rule.
func (r Rule) IsZero() bool {
	return r.tag == 0
}

// IsCombined reports whether r is an AND/OR node.
func (r Rule) IsCombined() bool {
	return r.tag == tagAnd || r.tag == tagOr
}

// Kind returns the matcher kind of a leaf, or 0 for nodes.
func (r Rule) Kind() Kind {
	if r.tag != tagMatch {
		return 0
	}
	return r.kind
}

// Args returns a copy of a leaf's arguments.
func (r Rule) Args() []string {
	return append([]string(nil), r.args...)
}

// Operator returns the operator of a combined rule.
func (r Rule) Operator() (Operator, bool) {
	switch r.tag {
	case tagAnd:
		return OpAnd, true
	case tagOr:
		return OpOr, true
	default:
		return 0, false
	}
}

// Children returns the operands of a combined rule.
func (r Rule) Children() (left, right Rule, ok bool) {
	if !r.IsCombined() {
		return Rule{}, Rule{}, false
	}
	return *r.left, *r.right, true
}

// Equal reports whether two rules render identically.
func (r Rule) Equal(other Rule) bool {
	return r.String() == other.String()
}

// =============================================================================
// Rendering
// =============================================================================

// String renders the rule in router-expression syntax, e.g.
//
//	(Host(`example.com`) && PathPrefix(`/api`))
func (r Rule) String() string {
	var b strings.Builder
	render(&b, r)
	return b.String()
}

func render(b *strings.Builder, r Rule) {
	switch r.tag {
	case tagMatch:
		b.WriteString(r.kind.String())
		b.WriteString("(`")
		b.WriteString(strings.Join(r.args, "`, `"))
		b.WriteString("`)")
	case tagAnd, tagOr:
		op, _ := r.Operator()
		b.WriteByte('(')
		render(b, *r.left)
		b.WriteByte(' ')
		b.WriteString(op.String())
		b.WriteByte(' ')
		render(b, *r.right)
		b.WriteByte(')')
	}
}
