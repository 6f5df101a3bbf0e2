package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frederic-klein/nevra/internal/catalog"
	"github.com/frederic-klein/nevra/internal/nevra"
	"github.com/frederic-klein/nevra/internal/reldep"
	"github.com/frederic-klein/nevra/internal/subject"
)

func fixture() *catalog.Catalog {
	c := catalog.New(nil)
	c.Add(
		catalog.Package{Name: "pilchard", Version: "1.2.3", Release: "1", Arch: "i686"},
		catalog.Package{Name: "pilchard", Version: "1.2.3", Release: "1", Arch: "x86_64"},
		catalog.Package{Name: "pilchard", Version: "1.2.4", Release: "1", Arch: "i686"},
		catalog.Package{Name: "pilchard", Version: "1.2.4", Release: "1", Arch: "x86_64"},
		catalog.Package{Name: "penny-lib", Version: "4", Release: "1", Arch: "x86_64",
			Provides: []reldep.Reldep{{Name: "P-lib"}}},
		catalog.Package{Name: "penny", Version: "4", Release: "1", Arch: "noarch"},
		catalog.Package{Name: "fool", Version: "1", Release: "3", Arch: "noarch"},
	)
	return c
}

func resolveAll(t *testing.T, c Catalog, pattern string, opts Options) []nevra.NEVRA {
	t.Helper()
	got, err := New(c, nil).RealAll(subject.New(pattern), opts)
	require.NoError(t, err)
	return got
}

func nv(name string, epoch *int, version, release, arch *string) nevra.NEVRA {
	return nevra.NEVRA{Name: &name, Epoch: epoch, Version: version, Release: release, Arch: arch}
}

var _ Catalog = (*catalog.Catalog)(nil)

var str = nevra.Str

func TestReal_EmptyCatalog(t *testing.T) {
	got := resolveAll(t, catalog.New(nil), "penny-lib-devel", Options{})
	assert.Empty(t, got)

	all := subject.New("penny-lib-devel").All(subject.FormName)
	require.Len(t, all, 1)
	assert.True(t, all[0].Equal(nv("penny-lib-devel", nil, nil, nil, nil)))
}

func TestReal_Name(t *testing.T) {
	got := resolveAll(t, fixture(), "penny-lib", Options{})
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(nv("penny-lib", nil, nil, nil, nil)))
}

func TestReal_DashVersion(t *testing.T) {
	got := resolveAll(t, fixture(), "penny-4", Options{})
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(nv("penny", nil, str("4"), nil, nil)))
}

func TestReal_NA(t *testing.T) {
	got := resolveAll(t, fixture(), "pilchard.i686", Options{})
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(nv("pilchard", nil, nil, nil, str("i686"))))
}

func TestReal_SrcArch(t *testing.T) {
	got := resolveAll(t, fixture(), "pilchard.src", Options{})
	require.Len(t, got, 1)
	assert.Equal(t, "src", *got[0].Arch)
}

func TestReal_FullNEVRA(t *testing.T) {
	it := New(fixture(), nil).Real(subject.New("pilchard-1.2.4-1.x86_64"), Options{})

	n, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, subject.FormNEVRA, it.Form())
	assert.True(t, n.Equal(nv("pilchard", nil, str("1.2.4"), str("1"), str("x86_64"))))

	n, ok = it.Next()
	require.True(t, ok)
	assert.Equal(t, subject.FormNEVR, it.Form())
	assert.True(t, n.Equal(nv("pilchard", nil, str("1.2.4"), str("1.x86_64"), nil)))

	_, ok = it.Next()
	assert.False(t, ok)
	assert.NoError(t, it.Err())
}

func TestReal_Epoch(t *testing.T) {
	got := resolveAll(t, fixture(), "fool-1:1-3.noarch", Options{})
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(nv("fool", nevra.Int(1), str("1"), str("3"), str("noarch"))))
	assert.True(t, got[1].Equal(nv("fool", nevra.Int(1), str("1"), str("3.noarch"), nil)))
}

func TestReal_WrongArch(t *testing.T) {
	pattern := "pilchard-1.2.4-1.ppc64"

	got := resolveAll(t, fixture(), pattern, Options{Forms: []subject.Form{subject.FormNEVRA}})
	assert.Empty(t, got)
	assert.NotEmpty(t, subject.New(pattern).All(subject.FormsMostProbable...))

	// The release may still swallow the arch.
	got = resolveAll(t, fixture(), pattern, Options{})
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(nv("pilchard", nil, str("1.2.4"), str("1.ppc64"), nil)))
}

func TestReal_NonexistentVersion(t *testing.T) {
	assert.Empty(t, resolveAll(t, fixture(), "pilchard-9.9-1.x86_64", Options{}))
}

func TestReal_Globs(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		globs   bool
		want    []nevra.NEVRA
	}{
		{
			name:    "globbed version",
			pattern: "pilchard-1.2.*",
			globs:   true,
			want: []nevra.NEVRA{
				nv("pilchard-1.2.*", nil, nil, nil, nil),
				nv("pilchard", nil, str("1.2.*"), nil, nil),
			},
		},
		{
			name:    "globs disabled",
			pattern: "pilchard-1.2.*",
			want:    nil,
		},
		{
			name:    "globbed arch",
			pattern: "pilchard.*",
			globs:   true,
			want: []nevra.NEVRA{
				nv("pilchard", nil, nil, nil, str("*")),
				nv("pilchard.*", nil, nil, nil, nil),
			},
		},
		{
			name:    "globbed name",
			pattern: "pil*.i686",
			globs:   true,
			want: []nevra.NEVRA{
				nv("pil*", nil, nil, nil, str("i686")),
				nv("pil*.i686", nil, nil, nil, nil),
			},
		},
		{
			name:    "globbed name, unknown arch",
			pattern: "pil*.ppc64",
			globs:   true,
			want: []nevra.NEVRA{
				nv("pil*.ppc64", nil, nil, nil, nil),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveAll(t, fixture(), tt.pattern, Options{AllowGlobs: tt.globs})
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.True(t, got[i].Equal(tt.want[i]), "reading %d: got %s, want %s", i, got[i], tt.want[i])
			}
		})
	}
}

func TestReal_ICase(t *testing.T) {
	assert.Empty(t, resolveAll(t, fixture(), "Penny-Lib", Options{}))

	got := resolveAll(t, fixture(), "Penny-Lib", Options{ICase: true})
	require.Len(t, got, 1)
	assert.Equal(t, "Penny-Lib", *got[0].Name)
}

func TestReal_MonotonicNarrowing(t *testing.T) {
	patterns := []string{
		"penny-lib", "penny-4", "pilchard-1.2.4-1.x86_64", "pilchard-1.2.4-1.ppc64",
		"fool-1:1-3.noarch", "pilchard.i686", "four-of", "", "a.b.c-d",
	}

	for _, pattern := range patterns {
		t.Run(pattern, func(t *testing.T) {
			candidates := subject.New(pattern).All(subject.FormsMostProbable...)
			got := resolveAll(t, fixture(), pattern, Options{AllowGlobs: true})
			require.LessOrEqual(t, len(got), len(candidates))

			j := 0
			for _, c := range candidates {
				if j < len(got) && got[j].Equal(c) {
					j++
				}
			}
			assert.Equal(t, len(got), j, "resolved readings are not a subsequence of the candidates")
		})
	}
}

type fakeCatalog struct {
	names       error
	arches      error
	archCalls   int
	capabilities map[string]bool
}

func (f *fakeCatalog) NameExists(string, *string, bool, bool) (bool, error) {
	return f.names == nil, f.names
}

func (f *fakeCatalog) KnownArchitectures() ([]string, error) {
	f.archCalls++
	return []string{"x86_64"}, f.arches
}

func (f *fakeCatalog) CapabilityExists(name string, _ bool) (bool, error) {
	return f.capabilities[name], f.names
}

func TestReal_CatalogErrors(t *testing.T) {
	errBoom := errors.New("boom")

	t.Run("name lookup", func(t *testing.T) {
		_, err := New(&fakeCatalog{names: errBoom}, nil).RealAll(subject.New("penny"), Options{})
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("arch lookup", func(t *testing.T) {
		it := New(&fakeCatalog{arches: errBoom}, nil).Real(subject.New("penny.x86_64"), Options{})
		_, ok := it.Next()
		assert.False(t, ok)
		assert.ErrorIs(t, it.Err(), errBoom)

		_, ok = it.Next()
		assert.False(t, ok, "iteration stays stopped after an error")
	})
}

func TestReal_ArchesFetchedOnce(t *testing.T) {
	cat := &fakeCatalog{}
	got := resolveAll(t, cat, "a.x86_64-1-1.x86_64", Options{})

	assert.NotEmpty(t, got)
	assert.Equal(t, 1, cat.archCalls)
}

func TestReal_NoCatalog(t *testing.T) {
	_, err := New(nil, nil).RealAll(subject.New("penny"), Options{})
	assert.ErrorIs(t, err, ErrNoCatalog)

	_, err = New(nil, nil).Capability("penny", false)
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestCapability(t *testing.T) {
	tests := []struct {
		pattern string
		icase   bool
		want    *reldep.Reldep
	}{
		{"P-lib", false, &reldep.Reldep{Name: "P-lib"}},
		{"penny", false, &reldep.Reldep{Name: "penny"}},
		{"p-lib", false, nil},
		{"p-lib", true, &reldep.Reldep{Name: "p-lib"}},
		{"P-lib >= 3", false, &reldep.Reldep{Name: "P-lib", Cmp: reldep.GTE, Version: "3"}},
		{"P-lib<3", false, &reldep.Reldep{Name: "P-lib", Cmp: reldep.LT, Version: "3"}},
		{"Q-lib = 1", false, nil},
		{"Q-lib", false, nil},
		{"1:P-lib", false, nil},
		{"", false, nil},
	}

	r := New(fixture(), nil)
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := r.Capability(tt.pattern, tt.icase)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCapability_Malformed(t *testing.T) {
	r := New(fixture(), nil)

	for _, literal := range []string{"P-lib >=", ">= 3", "  <  "} {
		_, err := r.Capability(literal, false)
		require.ErrorIs(t, err, reldep.ErrMalformed, literal)
		assert.Contains(t, err.Error(), literal)
	}
}

func TestCapability_CatalogError(t *testing.T) {
	errBoom := errors.New("boom")
	_, err := New(&fakeCatalog{names: errBoom}, nil).Capability("P-lib", false)
	assert.ErrorIs(t, err, errBoom)
}
