// Package reference holds the static catalog reference tables: the zone and
// tax setup, the brand and condition facets, and the category collections.
// A default table is embedded; operators replace it with their own YAML file.
package reference

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/uniclima/storefront/pkg/slug"
)

//go:embed default.yaml
var defaultYAML []byte

// Names maps a language code to a translated name.
type Names map[string]string

// Languages returns the language codes of n in a stable order.
func (n Names) Languages() []string {
	langs := make([]string, 0, len(n))
	for l := range n {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Country is the single member of the shipping and tax zone.
type Country struct {
	Code  string `yaml:"code"`
	Names Names  `yaml:"names"`
}

// Zone is the tax and shipping zone assigned to the default channel.
type Zone struct {
	Name    string  `yaml:"name"`
	Country Country `yaml:"country"`
}

// Tax is the default tax category and its rate inside the zone.
type Tax struct {
	Category string  `yaml:"category"`
	RateName string  `yaml:"rate_name"`
	Rate     float64 `yaml:"rate"`
}

// FacetValue is a predefined value of a facet.
type FacetValue struct {
	Code  string `yaml:"code"`
	Names Names  `yaml:"names"`
}

// Facet is a product facet and, optionally, its fixed values.
type Facet struct {
	Code   string       `yaml:"code"`
	Names  Names        `yaml:"names"`
	Values []FacetValue `yaml:"values,omitempty"`
}

// Collection is the root collection every category collection hangs from.
type Collection struct {
	Slug         string `yaml:"slug"`
	EnglishSlug  string `yaml:"en_slug"`
	Names        Names  `yaml:"names"`
	Descriptions Names  `yaml:"descriptions"`
}

// StockLocation is created when the backend has none.
type StockLocation struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Data is a complete reference table.
type Data struct {
	Zone             Zone          `yaml:"zone"`
	Tax              Tax           `yaml:"tax"`
	BrandFacet       Facet         `yaml:"brand_facet"`
	ConditionFacet   Facet         `yaml:"condition_facet"`
	DefaultCondition string        `yaml:"default_condition"`
	RootCollection   Collection    `yaml:"root_collection"`
	StockLocation    StockLocation `yaml:"stock_location"`
	Categories       []string      `yaml:"categories"`
	Brands           []string      `yaml:"brands"`
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid reference data")

// Default returns the embedded reference table.
func Default() *Data {
	d, err := Parse(bytes.NewReader(defaultYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded reference data: %v", err))
	}
	return d
}

// Load reads the table at path, or returns Default when path is empty.
func Load(path string) (*Data, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference data: %w", err)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes and validates a YAML table. Unknown keys are rejected.
func Parse(r io.Reader) (*Data, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Data
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Marshal encodes d as YAML.
func (d *Data) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Validate checks that d can drive a seed run.
func (d *Data) Validate() error {
	switch {
	case d.Zone.Name == "":
		return fmt.Errorf("%w: zone.name is required", ErrInvalid)
	case d.Zone.Country.Code == "":
		return fmt.Errorf("%w: zone.country.code is required", ErrInvalid)
	case d.Tax.Category == "":
		return fmt.Errorf("%w: tax.category is required", ErrInvalid)
	case d.Tax.Rate <= 0 || d.Tax.Rate > 100:
		return fmt.Errorf("%w: tax.rate must be in (0, 100], got %v", ErrInvalid, d.Tax.Rate)
	case d.BrandFacet.Code == "":
		return fmt.Errorf("%w: brand_facet.code is required", ErrInvalid)
	case d.ConditionFacet.Code == "":
		return fmt.Errorf("%w: condition_facet.code is required", ErrInvalid)
	case d.RootCollection.Slug == "":
		return fmt.Errorf("%w: root_collection.slug is required", ErrInvalid)
	case len(d.Brands) == 0:
		return fmt.Errorf("%w: at least one brand is required", ErrInvalid)
	case len(d.Categories) == 0:
		return fmt.Errorf("%w: at least one category is required", ErrInvalid)
	}

	if d.DefaultCondition != "" && !d.hasCondition(d.DefaultCondition) {
		return fmt.Errorf("%w: default_condition %q is not a condition_facet value", ErrInvalid, d.DefaultCondition)
	}
	if err := uniqueSlugs("brands", d.Brands); err != nil {
		return err
	}
	return uniqueSlugs("categories", d.Categories)
}

func (d *Data) hasCondition(code string) bool {
	for _, v := range d.ConditionFacet.Values {
		if v.Code == code {
			return true
		}
	}
	return false
}

func uniqueSlugs(field string, names []string) error {
	seen := make(map[string]string, len(names))
	for _, n := range names {
		s := slug.Generate(n)
		if s == "" {
			return fmt.Errorf("%w: %s entry %q has an empty slug", ErrInvalid, field, n)
		}
		if prev, dup := seen[s]; dup {
			return fmt.Errorf("%w: %s %q and %q share slug %q", ErrInvalid, field, prev, n, s)
		}
		seen[s] = n
	}
	return nil
}
