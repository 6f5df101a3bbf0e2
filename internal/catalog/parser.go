package catalog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/frederic-klein/nevra/internal/reldep"
	"github.com/frederic-klein/nevra/internal/subject"
)

var (
	entryRe    = regexp.MustCompile(`^  (\S+)$`)
	repoRe     = regexp.MustCompile(`^    repo: (\S+)$`)
	providesRe = regexp.MustCompile(`^    provides:$`)
	provideRe  = regexp.MustCompile(`^      (.+)$`)
)

// File is the content of a catalog file.
type File struct {
	Arches   []string
	Packages []Package
}

// Parser reads catalog files in the text format written by Emitter.
type Parser struct {
	r io.Reader
}

// NewParser creates a new catalog parser.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: r}
}

// Parse reads the ARCHES and PACKAGES sections.
func (p *Parser) Parse() (*File, error) {
	f := &File{}
	var current *Package
	var section string
	var inProvides bool
	lineNo := 0

	flush := func() {
		if current != nil {
			f.Packages = append(f.Packages, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(p.r)
	for scanner.Scan() {
		line := scanner.Text()
		lineNo++

		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		if line == "ARCHES" || line == "PACKAGES" {
			flush()
			section = line
			continue
		}

		switch section {
		case "ARCHES":
			f.Arches = append(f.Arches, strings.Fields(line)...)
			continue
		case "":
			return nil, fmt.Errorf("line %d: content outside of a section", lineNo)
		}

		if matches := entryRe.FindStringSubmatch(line); matches != nil {
			flush()
			n, err := subject.Split(matches[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			pkg := FromNEVRA(n)
			current = &pkg
			inProvides = false
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("line %d: %q does not belong to a package", lineNo, line)
		}

		if matches := repoRe.FindStringSubmatch(line); matches != nil {
			current.Repo = matches[1]
			continue
		}

		if providesRe.MatchString(line) {
			inProvides = true
			continue
		}

		if matches := provideRe.FindStringSubmatch(line); matches != nil && inProvides {
			r, err := reldep.Parse(matches[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current.Provides = append(current.Provides, r)
			continue
		}

		return nil, fmt.Errorf("line %d: unexpected %q", lineNo, line)
	}

	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	return f, nil
}
