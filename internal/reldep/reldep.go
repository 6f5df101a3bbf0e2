// Package reldep models capabilities ("provides"/"requires" relations) such
// as "P-lib" or "fool <= 1-3".
package reldep

import (
	"fmt"
	"strings"
)

// Comparison is a set of version relations. The zero value means the
// capability carries no version constraint.
type Comparison int

const (
	EQ Comparison = 1 << iota
	GT
	LT
	NOT

	NEQ = NOT | EQ
	GTE = EQ | GT
	LTE = EQ | LT
)

type operator struct {
	symbol string
	cmp    Comparison
}

// operators is ordered so that two-character operators are tried first.
var operators = []operator{
	{">=", GTE},
	{"<=", LTE},
	{"!=", NEQ},
	{"=", EQ},
	{">", GT},
	{"<", LT},
}

// String returns the operator symbol, or "" for the zero Comparison.
func (c Comparison) String() string {
	for _, op := range operators {
		if op.cmp == c {
			return op.symbol
		}
	}
	if c == 0 {
		return ""
	}
	return fmt.Sprintf("Comparison(%d)", int(c))
}

// Holds reports whether an ordering result (negative, zero or positive, as
// returned by a version comparison of have against want) satisfies c.
func (c Comparison) Holds(order int) bool {
	if c == 0 {
		return true
	}
	if c&NOT != 0 {
		return !(c &^ NOT).Holds(order)
	}
	switch {
	case order < 0:
		return c&LT != 0
	case order > 0:
		return c&GT != 0
	default:
		return c&EQ != 0
	}
}

// Reldep is a capability, optionally constrained by a comparison and a
// version. Cmp and Version are either both set or both zero.
type Reldep struct {
	Name    string
	Cmp     Comparison
	Version string
}

// IsVersioned reports whether the capability carries a constraint.
func (r Reldep) IsVersioned() bool {
	return r.Cmp != 0
}

func (r Reldep) String() string {
	if !r.IsVersioned() {
		return r.Name
	}
	return r.Name + " " + r.Cmp.String() + " " + r.Version
}

// Parse reads a capability literal of the shape "name [op version]". The
// literal is split at the first operator found. A literal without any
// operator is a bare capability named by the whole trimmed string.
func Parse(literal string) (Reldep, error) {
	i, op := findOperator(literal)
	if i < 0 {
		name := strings.TrimSpace(literal)
		if name == "" {
			return Reldep{}, fmt.Errorf("parsing capability %q: empty name: %w", literal, ErrMalformed)
		}
		return Reldep{Name: name}, nil
	}

	name := strings.TrimSpace(literal[:i])
	version := strings.TrimSpace(literal[i+len(op.symbol):])
	if name == "" {
		return Reldep{}, fmt.Errorf("parsing capability %q: missing name before %q: %w", literal, op.symbol, ErrMalformed)
	}
	if version == "" {
		return Reldep{}, fmt.Errorf("parsing capability %q: missing version after %q: %w", literal, op.symbol, ErrMalformed)
	}
	return Reldep{Name: name, Cmp: op.cmp, Version: version}, nil
}

// MustParse is like Parse but panics on malformed literals. It is meant for
// literals fixed at compile time.
func MustParse(literal string) Reldep {
	r, err := Parse(literal)
	if err != nil {
		panic(err)
	}
	return r
}

// HasOperator reports whether s contains a comparison operator.
func HasOperator(s string) bool {
	i, _ := findOperator(s)
	return i >= 0
}

func findOperator(s string) (int, operator) {
	for i := 0; i < len(s); i++ {
		for _, op := range operators {
			if strings.HasPrefix(s[i:], op.symbol) {
				return i, op
			}
		}
	}
	return -1, operator{}
}
