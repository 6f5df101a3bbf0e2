package catalog

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/frederic-klein/nevra/internal/reldep"
)

// Scalar keeps a YAML scalar exactly as written, so that "1.10" stays
// "1.10" instead of becoming the float 1.1.
type Scalar string

func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar, got %s", node.Line, kindName(node.Kind))
	}
	*s = Scalar(node.Value)
	return nil
}

// MarshalYAML quotes values so they read back as strings in any tool.
func (s Scalar) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: string(s)}, nil
}

type yamlFile struct {
	Arches   []string      `yaml:"arches,omitempty"`
	Packages []yamlPackage `yaml:"packages"`
}

type yamlPackage struct {
	Name     string   `yaml:"name"`
	Epoch    int      `yaml:"epoch,omitempty"`
	Version  Scalar   `yaml:"version"`
	Release  Scalar   `yaml:"release"`
	Arch     string   `yaml:"arch"`
	Repo     string   `yaml:"repo,omitempty"`
	Provides []string `yaml:"provides,omitempty"`
}

// DecodeYAML reads a catalog from its YAML form.
func DecodeYAML(r io.Reader) (*File, error) {
	var yf yamlFile
	if err := yaml.NewDecoder(r).Decode(&yf); err != nil {
		if err == io.EOF {
			return &File{}, nil
		}
		return nil, fmt.Errorf("decoding yaml catalog: %w", err)
	}

	f := &File{Arches: yf.Arches}
	for i, yp := range yf.Packages {
		if yp.Name == "" {
			return nil, fmt.Errorf("package %d: missing name", i)
		}
		p := Package{
			Name:    yp.Name,
			Epoch:   yp.Epoch,
			Version: string(yp.Version),
			Release: string(yp.Release),
			Arch:    yp.Arch,
			Repo:    yp.Repo,
		}
		for _, literal := range yp.Provides {
			r, err := reldep.Parse(literal)
			if err != nil {
				return nil, fmt.Errorf("package %s: %w", p, err)
			}
			p.Provides = append(p.Provides, r)
		}
		f.Packages = append(f.Packages, p)
	}
	return f, nil
}

// EncodeYAML writes f in the form DecodeYAML reads.
func EncodeYAML(w io.Writer, f *File) error {
	yf := yamlFile{Arches: f.Arches, Packages: make([]yamlPackage, 0, len(f.Packages))}
	for _, p := range f.Packages {
		yp := yamlPackage{
			Name:    p.Name,
			Epoch:   p.Epoch,
			Version: Scalar(p.Version),
			Release: Scalar(p.Release),
			Arch:    p.Arch,
			Repo:    p.Repo,
		}
		for _, r := range p.Provides {
			yp.Provides = append(yp.Provides, r.String())
		}
		yf.Packages = append(yf.Packages, yp)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yf); err != nil {
		return fmt.Errorf("encoding yaml catalog: %w", err)
	}
	return enc.Close()
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "node"
	}
}
