// Package selection reads batch selection files:
//
//	package 'pilchard-1.2.4-1.x86_64';
//	package 'penny-lib', 'NA,NAME';
//	capability 'P-lib >= 3';
//	with 'globs' => sub {
//	    package 'pil*';
//	};
package selection

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/frederic-klein/nevra/internal/subject"
)

// Kind tells how a request is resolved.
type Kind int

const (
	KindPackage Kind = iota + 1
	KindCapability
)

func (k Kind) String() string {
	switch k {
	case KindPackage:
		return "package"
	case KindCapability:
		return "capability"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Request is one statement of a selection file.
type Request struct {
	Kind       Kind
	Pattern    string
	Forms      []subject.Form // nil means the resolver default
	AllowGlobs bool
	ICase      bool
	Line       int
}

var (
	requestRe = regexp.MustCompile(`^\s*(package|capability)\s+['"]([^'"]+)['"](?:\s*,\s*['"]([^'"]+)['"])?\s*;?\s*(?:#.*)?$`)
	withRe    = regexp.MustCompile(`^\s*with\s+['"](\w+)['"]\s*=>\s*sub\s*\{\s*$`)
	closeRe   = regexp.MustCompile(`^\s*\}\s*;?\s*$`)
)

// Parser parses selection files.
type Parser struct{}

// NewParser creates a new selection parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads the selection file at path.
func (p *Parser) Parse(path string) ([]Request, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening selection file: %w", err)
	}
	defer file.Close()

	return p.ParseReader(file)
}

// ParseReader reads a selection file from r.
func (p *Parser) ParseReader(r io.Reader) ([]Request, error) {
	var reqs []Request
	var globs, icase, inBlock bool
	lineNo := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		lineNo++

		// Skip comments and empty lines
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if matches := withRe.FindStringSubmatch(line); matches != nil {
			if inBlock {
				return nil, fmt.Errorf("line %d: nested with block", lineNo)
			}
			switch strings.ToLower(matches[1]) {
			case "globs":
				globs = true
			case "icase":
				icase = true
			default:
				return nil, fmt.Errorf("line %d: unknown option %q", lineNo, matches[1])
			}
			inBlock = true
			continue
		}

		if inBlock && closeRe.MatchString(line) {
			globs, icase, inBlock = false, false, false
			continue
		}

		matches := requestRe.FindStringSubmatch(line)
		if matches == nil {
			return nil, fmt.Errorf("line %d: unexpected %q", lineNo, trimmed)
		}

		req := Request{
			Kind:       KindPackage,
			Pattern:    matches[2],
			AllowGlobs: globs,
			ICase:      icase,
			Line:       lineNo,
		}
		if matches[1] == "capability" {
			req.Kind = KindCapability
		}
		if matches[3] != "" {
			if req.Kind == KindCapability {
				return nil, fmt.Errorf("line %d: capability takes no forms", lineNo)
			}
			forms, err := subject.ParseForms(strings.Split(matches[3], ","))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			req.Forms = forms
		}
		reqs = append(reqs, req)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading selection file: %w", err)
	}
	if inBlock {
		return nil, fmt.Errorf("line %d: unterminated with block", lineNo)
	}

	return reqs, nil
}
