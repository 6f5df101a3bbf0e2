// Package catalog is an in-memory package index: it answers the existence,
// architecture and capability lookups the resolver needs, and NEVRA queries.
package catalog

import (
	"io"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/frederic-klein/nevra/internal/evr"
	"github.com/frederic-klein/nevra/internal/nevra"
	"github.com/frederic-klein/nevra/internal/reldep"
)

// Package is one entry of the catalog.
type Package struct {
	Name     string
	Epoch    int
	Version  string
	Release  string
	Arch     string
	Repo     string
	Provides []reldep.Reldep
}

// FromNEVRA builds a package from a fully split NEVRA.
func FromNEVRA(n nevra.NEVRA) Package {
	p := Package{
		Name:    nevra.Get(n.Name),
		Version: nevra.Get(n.Version),
		Release: nevra.Get(n.Release),
		Arch:    nevra.Get(n.Arch),
	}
	if n.Epoch != nil {
		p.Epoch = *n.Epoch
	}
	return p
}

// EVR renders "[epoch:]version-release"; a zero epoch is left out.
func (p Package) EVR() string {
	var b strings.Builder
	if p.Epoch != 0 {
		b.WriteString(strconv.Itoa(p.Epoch))
		b.WriteByte(':')
	}
	b.WriteString(p.Version)
	b.WriteByte('-')
	b.WriteString(p.Release)
	return b.String()
}

// String renders name-[epoch:]version-release.arch.
func (p Package) String() string {
	return p.Name + "-" + p.EVR() + "." + p.Arch
}

// Catalog holds packages and the architectures they were built for. It is
// safe for concurrent readers; the provides index is built on first use.
type Catalog struct {
	mu       sync.RWMutex
	packages []Package
	byName   map[string][]int
	arches   map[string]struct{}
	provides map[string][]int
	logger   *slog.Logger
}

// New creates an empty catalog. A nil logger discards output.
func New(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Catalog{
		byName: make(map[string][]int),
		arches: make(map[string]struct{}),
		logger: logger,
	}
}

// Add inserts packages. Their architectures become known architectures.
func (c *Catalog) Add(pkgs ...Package) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range pkgs {
		c.byName[p.Name] = append(c.byName[p.Name], len(c.packages))
		c.packages = append(c.packages, p)
		c.addArch(p.Arch)
	}
	c.provides = nil
}

// AddArches declares architectures that have no package yet.
func (c *Catalog) AddArches(arches ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range arches {
		c.addArch(a)
	}
}

// "src" is implied by the resolver and never listed.
func (c *Catalog) addArch(a string) {
	if a == "" || a == "src" {
		return
	}
	c.arches[a] = struct{}{}
}

// Load adds the arches and packages of a parsed catalog file.
func (c *Catalog) Load(f *File) {
	c.AddArches(f.Arches...)
	c.Add(f.Packages...)
	c.logger.Debug("catalog loaded", "packages", len(f.Packages), "arches", len(f.Arches))
}

// File returns the catalog content in a form the emitters can write.
func (c *Catalog) File() *File {
	arches, _ := c.KnownArchitectures()
	return &File{Arches: arches, Packages: c.Packages()}
}

// Len returns the number of packages.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.packages)
}

// Packages returns a copy of all packages in insertion order.
func (c *Catalog) Packages() []Package {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.packages)
}

// NameExists reports whether a package named name exists. With a version, a
// package of that name must also have that version. Without nameOnly the
// name is looked up among provides instead and version is ignored.
func (c *Catalog) NameExists(name string, version *string, nameOnly, icase bool) (bool, error) {
	if !nameOnly {
		return c.CapabilityExists(name, icase)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, i := range c.lookup(c.byName, name, icase) {
		if version == nil || c.packages[i].Version == *version {
			return true, nil
		}
	}
	return false, nil
}

// KnownArchitectures returns the sorted known architectures, without "src".
func (c *Catalog) KnownArchitectures() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	arches := make([]string, 0, len(c.arches))
	for a := range c.arches {
		arches = append(arches, a)
	}
	slices.Sort(arches)
	return arches, nil
}

// CapabilityExists reports whether any package provides name. Every package
// provides its own name.
func (c *Catalog) CapabilityExists(name string, icase bool) (bool, error) {
	c.ensureProvides()

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lookup(c.provides, name, icase)) > 0, nil
}

// WhatProvides returns the packages providing r. For a versioned r, a
// provide matches when its version satisfies the comparison; an unversioned
// provide matches any version.
func (c *Catalog) WhatProvides(r reldep.Reldep, icase bool) []Package {
	c.ensureProvides()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Package
	for _, i := range c.lookup(c.provides, r.Name, icase) {
		p := c.packages[i]
		if providesMatch(p, r, icase) {
			out = append(out, p)
		}
	}
	return out
}

func providesMatch(p Package, r reldep.Reldep, icase bool) bool {
	if !r.IsVersioned() {
		return true
	}
	if equalName(p.Name, r.Name, icase) && r.Cmp.Holds(evr.Compare(p.EVR(), r.Version)) {
		return true
	}
	for _, prov := range p.Provides {
		if !equalName(prov.Name, r.Name, icase) {
			continue
		}
		if !prov.IsVersioned() {
			return true
		}
		if r.Cmp.Holds(evr.Compare(prov.Version, r.Version)) {
			return true
		}
	}
	return false
}

// QueryOptions tune Query.
type QueryOptions struct {
	ICase bool
	Glob  bool
}

// Query returns the packages matching every field set in n.
func (c *Catalog) Query(n nevra.NEVRA, opts QueryOptions) []Package {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Package
	for _, p := range c.packages {
		if matchField(n.Name, p.Name, opts.ICase, opts.Glob) &&
			(n.Epoch == nil || *n.Epoch == p.Epoch) &&
			matchField(n.Version, p.Version, false, opts.Glob) &&
			matchField(n.Release, p.Release, false, opts.Glob) &&
			matchField(n.Arch, p.Arch, false, opts.Glob) {
			out = append(out, p)
		}
	}
	return out
}

func matchField(want *string, have string, icase, glob bool) bool {
	if want == nil {
		return true
	}
	pattern := *want
	if icase {
		pattern, have = strings.ToLower(pattern), strings.ToLower(have)
	}
	if glob && nevra.IsGlob(pattern) {
		ok, err := path.Match(pattern, have)
		return err == nil && ok
	}
	return pattern == have
}

func (c *Catalog) ensureProvides() {
	c.mu.RLock()
	ready := c.provides != nil
	c.mu.RUnlock()
	if ready {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provides != nil {
		return
	}
	provides := make(map[string][]int)
	for i, p := range c.packages {
		seen := map[string]bool{p.Name: true}
		provides[p.Name] = append(provides[p.Name], i)
		for _, prov := range p.Provides {
			if seen[prov.Name] {
				continue
			}
			seen[prov.Name] = true
			provides[prov.Name] = append(provides[prov.Name], i)
		}
	}
	c.provides = provides
	c.logger.Debug("provides index built", "capabilities", len(provides))
}

// lookup returns the package indexes stored under key, or under every key
// equal to it ignoring case. Callers hold c.mu.
func (c *Catalog) lookup(index map[string][]int, key string, icase bool) []int {
	if !icase {
		return index[key]
	}
	var out []int
	for k, idx := range index {
		if strings.EqualFold(k, key) {
			out = append(out, idx...)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func equalName(a, b string, icase bool) bool {
	if icase {
		return strings.EqualFold(a, b)
	}
	return a == b
}
