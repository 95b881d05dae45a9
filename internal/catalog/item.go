// Package catalog reads WooCommerce product exports and normalizes their
// fields into the values the commerce backend expects.
package catalog

import (
	"strings"

	"github.com/uniclima/storefront/pkg/slug"
)

// Column headers of the WooCommerce Spanish product export.
const (
	ColumnID               = "ID"
	ColumnType             = "Tipo"
	ColumnSKU              = "SKU"
	ColumnName             = "Nombre"
	ColumnPublished        = "Publicado"
	ColumnShortDescription = "Descripción corta"
	ColumnDescription      = "Descripción"
	ColumnInStock          = "¿Existencias?"
	ColumnStock            = "Inventario"
	ColumnSalePrice        = "Precio rebajado"
	ColumnRegularPrice     = "Precio normal"
	ColumnCategories       = "Categorías"
	ColumnTags             = "Etiquetas"
	ColumnImages           = "Imágenes"
)

// DefaultCategory is used for rows with an empty category list.
const DefaultCategory = "Sin categorizar"

// Item is one product row of the export. Values are kept verbatim; the
// methods derive normalized values from them.
type Item struct {
	// Row is the 1-based position of the record after the header.
	Row int

	ID               string
	Type             string
	SKU              string
	Name             string
	Published        string
	ShortDescription string
	Description      string
	InStock          string
	Stock            string
	SalePrice        string
	RegularPrice     string
	Categories       string
	Tags             string
	Images           string
}

// Importable reports whether the row has the SKU and name a product needs.
func (it Item) Importable() bool {
	return it.SKU != "" && it.Name != ""
}

// Slug is the product slug derived from the name.
func (it Item) Slug() string {
	return slug.Generate(it.Name)
}

// Enabled reports whether the product is published.
func (it Item) Enabled() bool {
	return it.Published == "1"
}

// Category returns the first entry of the category list, or DefaultCategory.
func (it Item) Category() string {
	if c := firstToken(it.Categories); c != "" {
		return c
	}
	return DefaultCategory
}

// Brand returns the first tag, which the shop uses as the brand name. It is
// empty when the row has no tags.
func (it Item) Brand() string {
	return firstToken(it.Tags)
}

// Price is the regular price in cents, falling back to the sale price when
// the regular price is missing or zero.
func (it Item) Price() int64 {
	if p := ParsePrice(it.RegularPrice); p != 0 {
		return p
	}
	return ParsePrice(it.SalePrice)
}

// StockOnHand is the parsed inventory count.
func (it Item) StockOnHand() int {
	return ParseStock(it.Stock)
}

// PlainDescription is the cleaned long description, or the cleaned short
// description when the long one is empty.
func (it Item) PlainDescription() string {
	if d := CleanDescription(it.Description); d != "" {
		return d
	}
	return CleanDescription(it.ShortDescription)
}

// ImageURLs splits the comma separated image list.
func (it Item) ImageURLs() []string {
	var urls []string
	for _, u := range strings.Split(it.Images, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func firstToken(list string) string {
	first, _, _ := strings.Cut(list, ",")
	return strings.TrimSpace(first)
}
