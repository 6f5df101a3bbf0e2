package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/frederic-klein/nevra/internal/nevra"
)

func entries() []Entry {
	return []Entry{
		{
			Kind:    "package",
			Pattern: "pilchard-1.2.4-1.x86_64",
			Readings: []Reading{
				{
					Form: "NEVRA",
					NEVRA: nevra.NEVRA{
						Name: nevra.Str("pilchard"), Version: nevra.Str("1.2.4"),
						Release: nevra.Str("1"), Arch: nevra.Str("x86_64"),
					},
					Packages: []string{"pilchard-1.2.4-1.x86_64"},
				},
				{
					Form: "NEVR",
					NEVRA: nevra.NEVRA{
						Name: nevra.Str("pilchard"), Version: nevra.Str("1.2.4"),
						Release: nevra.Str("1.x86_64"),
					},
				},
			},
		},
		{Kind: "package", Pattern: "sardine"},
		{Kind: "capability", Pattern: "P-lib >= 3", Capability: "P-lib >= 3", Providers: []string{"penny-lib-4-1.x86_64"}},
		{Kind: "capability", Pattern: "P-lib >=", Error: `parsing capability "P-lib >=": missing version`},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, entries()))

	want := `package pilchard-1.2.4-1.x86_64
  NEVRA   name=pilchard version=1.2.4 release=1 arch=x86_64
    pilchard-1.2.4-1.x86_64
  NEVR    name=pilchard version=1.2.4 release=1.x86_64
package sardine
  (no match)
capability P-lib >= 3
  P-lib >= 3
    penny-lib-4-1.x86_64
capability P-lib >=
  error: parsing capability "P-lib >=": missing version
`
	assert.Equal(t, want, buf.String())
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, entries()))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 4)

	readings, ok := got[0]["readings"].([]any)
	require.True(t, ok)
	require.Len(t, readings, 2)

	first := readings[0].(map[string]any)
	assert.Equal(t, "NEVRA", first["form"])
	assert.Equal(t, "pilchard", first["name"])
	assert.Equal(t, "1.2.4", first["version"])
	assert.NotContains(t, first, "epoch")

	assert.NotContains(t, got[1], "readings")
	assert.Equal(t, "P-lib >= 3", got[2]["capability"])
	assert.Contains(t, got[3]["error"], "missing version")
}

func TestWriteYAML_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWrite(t *testing.T) {
	var text, viaWrite bytes.Buffer
	require.NoError(t, WriteText(&text, entries()))
	require.NoError(t, Write(&viaWrite, FormatText, entries()))
	assert.Equal(t, text.String(), viaWrite.String())

	assert.Error(t, Write(&viaWrite, Format("xml"), entries()))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("json")
	assert.ErrorContains(t, err, `unknown format "json"`)
}

func TestFields(t *testing.T) {
	n := nevra.NEVRA{Name: nevra.Str("fool"), Epoch: nevra.Int(0), Version: nevra.Str("")}
	assert.Equal(t, "name=fool epoch=0 version=", Fields(n))
	assert.Equal(t, "", Fields(nevra.NEVRA{}))
}

func TestEntry_Found(t *testing.T) {
	e := entries()
	assert.True(t, e[0].Found())
	assert.False(t, e[1].Found())
	assert.True(t, e[2].Found())
	assert.False(t, e[3].Found())
}
