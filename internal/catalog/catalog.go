package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrDiamondNotFound     = errors.New("diamond not found")
	ErrCertificateNotFound = errors.New("certificate not found")
)

// Catalog is the read-only product set loaded at startup
type Catalog struct {
	diamonds     []Diamond
	byID         map[string]int
	certificates []Certificate
	certByID     map[int]int
}

// seedFile is the on-disk layout of the catalog seed
type seedFile struct {
	Diamonds     []Diamond     `json:"diamonds" yaml:"diamonds"`
	Certificates []Certificate `json:"certificates" yaml:"certificates"`
}

// New validates the records and builds a catalog. Diamond order is kept as
// the "newest" order.
func New(diamonds []Diamond, certificates []Certificate) (*Catalog, error) {
	c := &Catalog{
		diamonds:     slices.Clone(diamonds),
		byID:         make(map[string]int, len(diamonds)),
		certificates: slices.Clone(certificates),
		certByID:     make(map[int]int, len(certificates)),
	}

	for i, d := range c.diamonds {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate diamond id %q", d.ID)
		}
		c.byID[d.ID] = i
	}

	for i, cert := range c.certificates {
		if cert.Name == "" {
			return nil, fmt.Errorf("certificate %d: name is required", cert.ID)
		}
		if _, dup := c.certByID[cert.ID]; dup {
			return nil, fmt.Errorf("duplicate certificate id %d", cert.ID)
		}
		c.certByID[cert.ID] = i
	}

	return c, nil
}

// Load reads a catalog seed file. Files ending in .json are decoded as JSON,
// everything else as YAML.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var seed seedFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &seed)
	default:
		err = yaml.Unmarshal(data, &seed)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog file %s: %w", path, err)
	}

	c, err := New(seed.Diamonds, seed.Certificates)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog file %s: %w", path, err)
	}
	return c, nil
}

// Diamonds returns a copy of the catalog in catalog order
func (c *Catalog) Diamonds() []Diamond {
	return slices.Clone(c.diamonds)
}

// Len returns the number of diamonds
func (c *Catalog) Len() int {
	return len(c.diamonds)
}

// Diamond looks up a diamond by ID
func (c *Catalog) Diamond(id string) (Diamond, error) {
	i, ok := c.byID[id]
	if !ok {
		return Diamond{}, fmt.Errorf("%w: %s", ErrDiamondNotFound, id)
	}
	return c.diamonds[i], nil
}

// Certificates returns the company accreditations
func (c *Catalog) Certificates() []Certificate {
	return slices.Clone(c.certificates)
}

// Certificate looks up a certificate by ID
func (c *Catalog) Certificate(id int) (Certificate, error) {
	i, ok := c.certByID[id]
	if !ok {
		return Certificate{}, fmt.Errorf("%w: %d", ErrCertificateNotFound, id)
	}
	return c.certificates[i], nil
}

// Query runs the query engine over the whole catalog
func (c *Catalog) Query(f FilterSet) []Diamond {
	return Query(c.diamonds, f)
}
