package subject

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/frederic-klein/nevra/internal/nevra"
)

// Subject is a user-typed package identifier. It is tokenized once, and the
// tokens and signature are shared read-only by every iterator built from it.
type Subject struct {
	pattern string
	tokens  []Token
	abbr    string
}

// New tokenizes pattern.
func New(pattern string) *Subject {
	tokens := Tokenize(pattern)
	return &Subject{
		pattern: pattern,
		tokens:  tokens,
		abbr:    Signature(tokens),
	}
}

// Pattern returns the identifier the subject was built from.
func (s *Subject) Pattern() string {
	return s.pattern
}

// Tokens returns a copy of the token sequence.
func (s *Subject) Tokens() []Token {
	return slices.Clone(s.tokens)
}

// Signature returns the abbreviation signature, one symbol per token.
func (s *Subject) Signature() string {
	return s.abbr
}

// Matches reports whether the whole signature fits form.
func (s *Subject) Matches(form Form) bool {
	re, ok := grammars[form]
	return ok && re.MatchString(s.abbr)
}

// Possibilities returns an iterator over the structural readings of the
// subject, one per matching form, in the order of forms. With no forms,
// FormsMostSpecific is used.
func (s *Subject) Possibilities(forms ...Form) *Possibilities {
	if len(forms) == 0 {
		forms = FormsMostSpecific
	}
	return &Possibilities{
		subject: s,
		forms:   slices.Clone(forms),
	}
}

// All drains a fresh iterator over forms into a slice.
func (s *Subject) All(forms ...Form) []nevra.NEVRA {
	var out []nevra.NEVRA
	it := s.Possibilities(forms...)
	for {
		n, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, n)
	}
}

// match tries form against the signature and back-maps the named zones.
func (s *Subject) match(form Form) (nevra.NEVRA, bool) {
	re, ok := grammars[form]
	if !ok {
		return nevra.NEVRA{}, false
	}
	loc := re.FindStringSubmatchIndex(s.abbr)
	if loc == nil {
		return nevra.NEVRA{}, false
	}

	var n nevra.NEVRA
	for i, zone := range re.SubexpNames() {
		start, end := loc[2*i], loc[2*i+1]
		if zone == "" || start < 0 {
			continue
		}
		value := s.backmap(start, end)
		switch zone {
		case "name":
			n.Name = &value
		case "epoch":
			n.Epoch = nevra.Int(s.epoch(start, end, value))
		case "version":
			n.Version = &value
		case "release":
			n.Release = &value
		case "arch":
			n.Arch = &value
		}
	}
	return n, true
}

// backmap joins the contents of tokens [start, end). Epoch tokens give their
// digits without the colon.
func (s *Subject) backmap(start, end int) string {
	var b strings.Builder
	for _, t := range s.tokens[start:end] {
		b.WriteString(t.Content)
	}
	return b.String()
}

func (s *Subject) epoch(start, end int, value string) int {
	if end-start != 1 || !s.tokens[start].Epoch {
		panic(fmt.Sprintf("subject: epoch zone [%d,%d) of %q does not cover a single epoch token", start, end, s.pattern))
	}
	e, err := strconv.Atoi(value)
	if err != nil {
		panic(fmt.Sprintf("subject: epoch token %q of %q is not an integer: %v", value, s.pattern, err))
	}
	return e
}

// Possibilities is a lazy, single-use sequence of NEVRA readings. Each call
// to Next tries at most one more form. It is not safe for concurrent use.
type Possibilities struct {
	subject *Subject
	forms   []Form
	next    int
	last    Form
}

// Next returns the next reading, or false when the forms are exhausted.
func (p *Possibilities) Next() (nevra.NEVRA, bool) {
	for p.next < len(p.forms) {
		form := p.forms[p.next]
		p.next++
		if n, ok := p.subject.match(form); ok {
			p.last = form
			return n, true
		}
	}
	return nevra.NEVRA{}, false
}

// Form returns the form that produced the reading last returned by Next.
func (p *Possibilities) Form() Form {
	return p.last
}

// Split parses s strictly as a full NEVRA, e.g. a catalog entry.
func Split(s string) (nevra.NEVRA, error) {
	n, ok := New(s).match(FormNEVRA)
	if !ok {
		return nevra.NEVRA{}, fmt.Errorf("splitting %q: %w", s, ErrNoMatch)
	}
	return n, nil
}
