// Package catalog serves the static product reference data.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fastygo/interceptor/domain"
)

//go:embed products.yaml
var defaultProducts []byte

// Catalog is read-only after construction.
type Catalog struct {
	products []domain.Product
	byID     map[string]domain.Product
}

// Default returns the catalog shipped with the binary.
func Default() *Catalog {
	c, err := Parse(defaultProducts)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a YAML product list from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var products []domain.Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	c := &Catalog{
		products: products,
		byID:     make(map[string]domain.Product, len(products)),
	}
	for _, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product %q has no id", p.Name)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		c.byID[p.ID] = p
	}
	return c, nil
}

// Products returns a copy of the product list in file order.
func (c *Catalog) Products() []domain.Product {
	return append([]domain.Product(nil), c.products...)
}

func (c *Catalog) Product(id string) (domain.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}
