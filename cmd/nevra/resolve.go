package main

import (
	"errors"
	"fmt"

	"github.com/frederic-klein/nevra/internal/catalog"
	"github.com/frederic-klein/nevra/internal/reldep"
	"github.com/frederic-klein/nevra/internal/report"
	"github.com/frederic-klein/nevra/internal/resolver"
	"github.com/frederic-klein/nevra/internal/subject"
)

// resolvePackage resolves pattern against cat and lists the packages each
// surviving reading selects.
func resolvePackage(res *resolver.Resolver, cat *catalog.Catalog, pattern string, opts resolver.Options) (report.Entry, error) {
	entry := report.Entry{Kind: "package", Pattern: pattern}

	it := res.Real(subject.New(pattern), opts)
	for {
		n, ok := it.Next()
		if !ok {
			break
		}
		r := report.Reading{Form: it.Form().String(), NEVRA: n}
		for _, p := range cat.Query(n, catalog.QueryOptions{ICase: opts.ICase, Glob: opts.AllowGlobs}) {
			r.Packages = append(r.Packages, p.String())
		}
		entry.Readings = append(entry.Readings, r)
	}
	if err := it.Err(); err != nil {
		return report.Entry{}, fmt.Errorf("resolving %q: %w", pattern, err)
	}
	return entry, nil
}

// resolveCapability resolves a capability pattern and lists its providers.
// A malformed literal is reported in the entry rather than returned.
func resolveCapability(res *resolver.Resolver, cat *catalog.Catalog, pattern string, icase bool) (report.Entry, error) {
	entry := report.Entry{Kind: "capability", Pattern: pattern}

	dep, err := res.Capability(pattern, icase)
	if errors.Is(err, reldep.ErrMalformed) {
		entry.Error = err.Error()
		return entry, nil
	}
	if err != nil {
		return report.Entry{}, fmt.Errorf("resolving capability %q: %w", pattern, err)
	}
	if dep == nil {
		return entry, nil
	}

	entry.Capability = dep.String()
	for _, p := range cat.WhatProvides(*dep, icase) {
		entry.Providers = append(entry.Providers, p.String())
	}
	return entry, nil
}

// unresolved returns an error naming how many entries found nothing.
func unresolved(entries []report.Entry) error {
	n := 0
	for _, e := range entries {
		if !e.Found() {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d patterns did not resolve", n, len(entries))
}
