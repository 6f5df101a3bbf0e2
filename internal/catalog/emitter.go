package catalog

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
)

const header = "# nevra catalog format: version 1.0\n"

// Emitter writes catalog files in the text format read by Parser.
type Emitter struct {
	w io.Writer
}

// NewEmitter creates a new catalog emitter.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes f with packages sorted by their NEVRA string.
func (e *Emitter) Emit(f *File) error {
	sorted := slices.Clone(f.Packages)
	slices.SortStableFunc(sorted, func(a, b Package) int {
		return cmp.Compare(a.String(), b.String())
	})

	if _, err := fmt.Fprint(e.w, header); err != nil {
		return err
	}

	if len(f.Arches) > 0 {
		arches := slices.Clone(f.Arches)
		slices.Sort(arches)
		if _, err := fmt.Fprintf(e.w, "ARCHES\n  %s\n", strings.Join(arches, " ")); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprint(e.w, "PACKAGES\n"); err != nil {
		return err
	}

	for _, p := range sorted {
		if err := e.emitPackage(p); err != nil {
			return err
		}
	}

	return nil
}

func (e *Emitter) emitPackage(p Package) error {
	if _, err := fmt.Fprintf(e.w, "  %s\n", p); err != nil {
		return err
	}

	if p.Repo != "" {
		if _, err := fmt.Fprintf(e.w, "    repo: %s\n", p.Repo); err != nil {
			return err
		}
	}

	if len(p.Provides) > 0 {
		if _, err := fmt.Fprint(e.w, "    provides:\n"); err != nil {
			return err
		}
		for _, r := range p.Provides {
			if _, err := fmt.Fprintf(e.w, "      %s\n", r); err != nil {
				return err
			}
		}
	}

	return nil
}
