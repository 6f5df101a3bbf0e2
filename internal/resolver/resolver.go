// Package resolver narrows the structural readings of a package identifier
// down to the ones a catalog actually knows, and resolves capabilities.
package resolver

import (
	"io"
	"log/slog"
	"slices"

	"github.com/frederic-klein/nevra/internal/nevra"
	"github.com/frederic-klein/nevra/internal/reldep"
	"github.com/frederic-klein/nevra/internal/subject"
)

// Catalog is the package index the resolver consults. Errors are passed
// through to the caller unchanged.
type Catalog interface {
	// NameExists reports whether a package named name exists, with the
	// given version when version is non-nil. Without nameOnly, name is
	// looked up among provides.
	NameExists(name string, version *string, nameOnly, icase bool) (bool, error)
	// KnownArchitectures lists the architectures of the catalog. "src" is
	// never included.
	KnownArchitectures() ([]string, error)
	// CapabilityExists reports whether some package provides name.
	CapabilityExists(name string, icase bool) (bool, error)
}

// Options tune real-world resolution.
type Options struct {
	AllowGlobs bool
	ICase      bool
	Forms      []subject.Form // nil means subject.FormsMostProbable
}

// Resolver answers identifier and capability lookups against a catalog.
type Resolver struct {
	catalog Catalog
	logger  *slog.Logger
}

// New creates a resolver. A nil logger discards output.
func New(catalog Catalog, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{catalog: catalog, logger: logger}
}

// Real returns an iterator over the readings of s that pass the name and
// architecture filters, in the order of opts.Forms.
func (r *Resolver) Real(s *subject.Subject, opts Options) *Possibilities {
	forms := opts.Forms
	if len(forms) == 0 {
		forms = subject.FormsMostProbable
	}
	p := &Possibilities{
		resolver:   r,
		candidates: s.Possibilities(forms...),
		opts:       opts,
	}
	if r.catalog == nil {
		p.err = ErrNoCatalog
	}
	return p
}

// RealAll drains Real into a slice.
func (r *Resolver) RealAll(s *subject.Subject, opts Options) ([]nevra.NEVRA, error) {
	it := r.Real(s, opts)
	var out []nevra.NEVRA
	for {
		n, ok := it.Next()
		if !ok {
			return out, it.Err()
		}
		out = append(out, n)
	}
}

// Capability resolves pattern to a capability the catalog knows, or returns
// nil. A pattern without an operator must read as a bare name and is looked
// up whole; otherwise it is parsed as "name op version" and its name is
// looked up. Malformed literals fail with reldep.ErrMalformed.
func (r *Resolver) Capability(pattern string, icase bool) (*reldep.Reldep, error) {
	if r.catalog == nil {
		return nil, ErrNoCatalog
	}

	if !reldep.HasOperator(pattern) {
		if !subject.New(pattern).Matches(subject.FormName) {
			return nil, nil
		}
		ok, err := r.catalog.CapabilityExists(pattern, icase)
		if err != nil || !ok {
			return nil, err
		}
		return &reldep.Reldep{Name: pattern}, nil
	}

	dep, err := reldep.Parse(pattern)
	if err != nil {
		return nil, err
	}
	ok, err := r.catalog.CapabilityExists(dep.Name, icase)
	if err != nil || !ok {
		return nil, err
	}
	return &dep, nil
}

// Possibilities is the lazy, single-use sequence returned by Resolver.Real.
// The known architectures are fetched once, on the first reading that
// carries a checkable arch.
type Possibilities struct {
	resolver   *Resolver
	candidates *subject.Possibilities
	opts       Options
	arches     []string
	err        error
	last       subject.Form
}

// Next returns the next reading that passes both filters. It returns false
// when the readings are exhausted or a catalog lookup failed; check Err.
func (p *Possibilities) Next() (nevra.NEVRA, bool) {
	if p.err != nil {
		return nevra.NEVRA{}, false
	}
	for {
		n, ok := p.candidates.Next()
		if !ok {
			return nevra.NEVRA{}, false
		}
		keep, err := p.keep(n)
		if err != nil {
			p.err = err
			return nevra.NEVRA{}, false
		}
		if keep {
			p.last = p.candidates.Form()
			return n, true
		}
	}
}

// Err returns the catalog error that stopped the iteration, if any.
func (p *Possibilities) Err() error {
	return p.err
}

// Form returns the form of the reading last returned by Next.
func (p *Possibilities) Form() subject.Form {
	return p.last
}

func (p *Possibilities) keep(n nevra.NEVRA) (bool, error) {
	ok, err := p.knowsName(n)
	if err != nil {
		return false, err
	}
	if !ok {
		p.resolver.logger.Debug("candidate dropped: unknown name",
			"form", p.candidates.Form().String(), "candidate", n.String())
		return false, nil
	}

	ok, err = p.knowsArch(n)
	if err != nil {
		return false, err
	}
	if !ok {
		p.resolver.logger.Debug("candidate dropped: unknown arch",
			"form", p.candidates.Form().String(), "arch", nevra.Get(n.Arch))
		return false, nil
	}
	return true, nil
}

func (p *Possibilities) knowsName(n nevra.NEVRA) (bool, error) {
	if n.Name == nil {
		return true, nil
	}
	if p.opts.AllowGlobs && nevra.IsGlob(*n.Name) {
		return true, nil
	}
	version := n.Version
	if version != nil && p.opts.AllowGlobs && nevra.IsGlob(*version) {
		version = nil
	}
	return p.resolver.catalog.NameExists(*n.Name, version, true, p.opts.ICase)
}

func (p *Possibilities) knowsArch(n nevra.NEVRA) (bool, error) {
	if n.Arch == nil {
		return true, nil
	}
	if p.opts.AllowGlobs && nevra.IsGlob(*n.Arch) {
		return true, nil
	}
	if p.arches == nil {
		arches, err := p.resolver.catalog.KnownArchitectures()
		if err != nil {
			return false, err
		}
		p.arches = append(slices.Clone(arches), "src")
	}
	return slices.Contains(p.arches, *n.Arch), nil
}
