package nevra

import (
	"strconv"
	"strings"
)

// NEVRA is a package identifier split into name, epoch, version, release and
// architecture. A nil field was not present in the parsed string, which is
// different from a field that was present but empty.
type NEVRA struct {
	Name    *string `yaml:"name,omitempty"`
	Epoch   *int    `yaml:"epoch,omitempty"`
	Version *string `yaml:"version,omitempty"`
	Release *string `yaml:"release,omitempty"`
	Arch    *string `yaml:"arch,omitempty"`
}

// Str returns a pointer to s, for building NEVRA literals.
func Str(s string) *string {
	return &s
}

// Int returns a pointer to i.
func Int(i int) *int {
	return &i
}

// Equal reports whether all five fields of n and o are equal.
func (n NEVRA) Equal(o NEVRA) bool {
	return eqStr(n.Name, o.Name) &&
		eqInt(n.Epoch, o.Epoch) &&
		eqStr(n.Version, o.Version) &&
		eqStr(n.Release, o.Release) &&
		eqStr(n.Arch, o.Arch)
}

// IsZero reports whether no field is set.
func (n NEVRA) IsZero() bool {
	return n.Name == nil && n.Epoch == nil && n.Version == nil && n.Release == nil && n.Arch == nil
}

// EVR renders "[epoch:]version-release". Unset parts are left out together
// with their separator.
func (n NEVRA) EVR() string {
	var b strings.Builder
	n.evr(&b)
	return b.String()
}

func (n NEVRA) evr(b *strings.Builder) {
	if n.Epoch != nil {
		b.WriteString(strconv.Itoa(*n.Epoch))
		b.WriteByte(':')
	}
	if n.Version != nil {
		b.WriteString(*n.Version)
	}
	if n.Release != nil {
		b.WriteByte('-')
		b.WriteString(*n.Release)
	}
}

// String renders the identifier back from the populated fields, e.g.
// "four-of-fish-8:3.6.9-11.fc100.x86_64" or "penny-lib.i686".
func (n NEVRA) String() string {
	var b strings.Builder
	if n.Name != nil {
		b.WriteString(*n.Name)
	}
	if n.Epoch != nil || n.Version != nil || n.Release != nil {
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		n.evr(&b)
	}
	if n.Arch != nil {
		b.WriteByte('.')
		b.WriteString(*n.Arch)
	}
	return b.String()
}

// Get returns the value of a string field, or "" when it is unset.
func Get(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func eqStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IsGlob reports whether s contains a glob metacharacter.
func IsGlob(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
