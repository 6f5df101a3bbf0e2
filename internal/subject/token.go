package subject

import (
	"strconv"
	"strings"
)

// Token is one lexical unit of a package identifier: a "." or "-" separator,
// an epoch ("8" in "8:3.6.9") or a generic segment.
type Token struct {
	Content string
	Epoch   bool
}

// String returns the token as it appeared in the input. Epoch tokens get
// their colon back.
func (t Token) String() string {
	if t.Epoch {
		return t.Content + ":"
	}
	return t.Content
}

// Abbr returns the signature symbol of the token: 'E' for an epoch, the
// separator itself, or 'S' for a generic segment.
func (t Token) Abbr() byte {
	switch {
	case t.Epoch:
		return 'E'
	case t.Content == ".", t.Content == "-":
		return t.Content[0]
	default:
		return 'S'
	}
}

// Tokenize splits s into tokens. Joining the String() of every token gives
// back s.
func Tokenize(s string) []Token {
	var tokens []Token
	start := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '.' || c == '-':
			tokens = append(tokens, Token{Content: s[start:i]}, Token{Content: s[i : i+1]})
			start = i + 1
		case c == ':' && isEpoch(s[start:i]):
			tokens = append(tokens, Token{Content: s[start:i], Epoch: true})
			start = i + 1
		}
	}
	return append(tokens, Token{Content: s[start:]})
}

// Signature maps tokens to their abbreviations, one byte per token.
func Signature(tokens []Token) string {
	var b strings.Builder
	b.Grow(len(tokens))
	for _, t := range tokens {
		b.WriteByte(t.Abbr())
	}
	return b.String()
}

// isEpoch reports whether s is a non-negative decimal integer that fits an int.
func isEpoch(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	_, err := strconv.Atoi(s)
	return err == nil
}
