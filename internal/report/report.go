// Package report writes resolution results as text or YAML.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/frederic-klein/nevra/internal/nevra"
)

// Reading is one NEVRA reading of a pattern and the catalog packages it
// selects.
type Reading struct {
	Form     string      `yaml:"form"`
	NEVRA    nevra.NEVRA `yaml:",inline"`
	Packages []string    `yaml:"packages,omitempty"`
}

// Entry is the outcome of resolving one pattern.
type Entry struct {
	Kind       string    `yaml:"kind"`
	Pattern    string    `yaml:"pattern"`
	Readings   []Reading `yaml:"readings,omitempty"`
	Capability string    `yaml:"capability,omitempty"`
	Providers  []string  `yaml:"providers,omitempty"`
	Error      string    `yaml:"error,omitempty"`
}

// Found reports whether the entry resolved to anything.
func (e Entry) Found() bool {
	return e.Error == "" && (len(e.Readings) > 0 || e.Capability != "")
}

// Format selects an emitter.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or yaml)", s)
	}
}

// Write emits entries in format f.
func Write(w io.Writer, f Format, entries []Entry) error {
	switch f {
	case FormatYAML:
		return WriteYAML(w, entries)
	case FormatText, "":
		return WriteText(w, entries)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// WriteText writes one block per entry:
//
//	package pilchard.i686
//	  NA      name=pilchard arch=i686
//	    pilchard-1.2.3-1.i686
func WriteText(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s %s\n", e.Kind, e.Pattern); err != nil {
			return err
		}

		var lines []string
		switch {
		case e.Error != "":
			lines = append(lines, "  error: "+e.Error)
		case !e.Found():
			lines = append(lines, "  (no match)")
		}
		for _, r := range e.Readings {
			lines = append(lines, fmt.Sprintf("  %-7s %s", r.Form, Fields(r.NEVRA)))
			for _, p := range r.Packages {
				lines = append(lines, "    "+p)
			}
		}
		if e.Capability != "" {
			lines = append(lines, "  "+e.Capability)
			for _, p := range e.Providers {
				lines = append(lines, "    "+p)
			}
		}

		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteYAML writes entries as a YAML sequence.
func WriteYAML(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// Fields renders the populated fields of n as "key=value" pairs. Unlike
// NEVRA.String it keeps readings that print alike apart.
func Fields(n nevra.NEVRA) string {
	var parts []string
	add := func(key string, value *string) {
		if value != nil {
			parts = append(parts, key+"="+*value)
		}
	}
	add("name", n.Name)
	if n.Epoch != nil {
		parts = append(parts, "epoch="+strconv.Itoa(*n.Epoch))
	}
	add("version", n.Version)
	add("release", n.Release)
	add("arch", n.Arch)
	return strings.Join(parts, " ")
}
