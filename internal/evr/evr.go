// Package evr orders RPM epoch:version-release strings.
package evr

import (
	"strings"
	"unicode/utf8"
)

// EVR is a parsed "[epoch:]version[-release]" string.
type EVR struct {
	Epoch   string
	Version string
	Release string
}

// Parse splits s at the first colon and the last dash. A missing epoch is "0".
func Parse(s string) EVR {
	e := EVR{Epoch: "0"}
	if epoch, rest, ok := strings.Cut(s, ":"); ok {
		if epoch != "" {
			e.Epoch = epoch
		}
		s = rest
	}
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		e.Version, e.Release = s[:i], s[i+1:]
	} else {
		e.Version = s
	}
	return e
}

// Compare orders two EVR strings, returning -1, 0 or 1. Releases are only
// compared when both sides have one, so "1.0" matches "1.0-3".
func Compare(a, b string) int {
	return CompareEVR(Parse(a), Parse(b))
}

// CompareEVR is Compare on parsed values.
func CompareEVR(a, b EVR) int {
	if c := Vercmp(a.Epoch, b.Epoch); c != 0 {
		return c
	}
	if c := Vercmp(a.Version, b.Version); c != 0 {
		return c
	}
	if a.Release == "" || b.Release == "" {
		return 0
	}
	return Vercmp(a.Release, b.Release)
}

// Vercmp compares two version segments the way rpmvercmp does: runs of
// digits compare numerically, runs of letters lexically, digits beat
// letters, "~" sorts before everything and "^" after the base version.
func Vercmp(a, b string) int {
	if a == b {
		return 0
	}

	for {
		a = strings.TrimLeftFunc(a, separator)
		b = strings.TrimLeftFunc(b, separator)

		switch {
		case strings.HasPrefix(a, "~") && strings.HasPrefix(b, "~"):
			a, b = a[1:], b[1:]
			continue
		case strings.HasPrefix(a, "~"):
			return -1
		case strings.HasPrefix(b, "~"):
			return 1
		}

		switch {
		case strings.HasPrefix(a, "^") && strings.HasPrefix(b, "^"):
			a, b = a[1:], b[1:]
			continue
		case a == "" && strings.HasPrefix(b, "^"):
			return -1
		case strings.HasPrefix(a, "^") && b == "":
			return 1
		case strings.HasPrefix(a, "^"):
			return -1
		case strings.HasPrefix(b, "^"):
			return 1
		}

		if a == "" || b == "" {
			break
		}

		r, _ := utf8.DecodeRuneInString(a)
		numeric := isDigit(r)
		var aSeg, bSeg string
		if numeric {
			aSeg, a = span(a, isDigit)
			bSeg, b = span(b, isDigit)
		} else {
			aSeg, a = span(a, isAlpha)
			bSeg, b = span(b, isAlpha)
		}

		// segments of different kinds: numeric wins
		if bSeg == "" {
			if numeric {
				return 1
			}
			return -1
		}

		if numeric {
			aSeg = strings.TrimLeft(aSeg, "0")
			bSeg = strings.TrimLeft(bSeg, "0")
			if len(aSeg) != len(bSeg) {
				if len(aSeg) > len(bSeg) {
					return 1
				}
				return -1
			}
		}
		if c := strings.Compare(aSeg, bSeg); c != 0 {
			return c
		}
	}

	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

func separator(r rune) bool {
	return !isAlpha(r) && !isDigit(r) && r != '~' && r != '^'
}

func span(s string, f func(rune) bool) (string, string) {
	i := strings.IndexFunc(s, func(r rune) bool { return !f(r) })
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func isAlpha(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
