package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/uniclima/storefront/pkg/errors"
)

// ErrMissingHeader is returned for an export without a header row.
var ErrMissingHeader = errors.New("csv: missing header row")

// Reader streams Items from a WooCommerce export. Columns are resolved by
// header name; unknown columns are ignored and missing ones read as "".
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
	headers []string
	row     int
}

// NewReader reads the header row of r. A leading UTF-8 byte order mark is
// discarded.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.Comma = ','
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		header[i] = h
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}
	return &Reader{csv: cr, columns: columns, headers: header}, nil
}

// Headers returns the header row.
func (r *Reader) Headers() []string {
	return r.headers
}

// Read returns the next Item, or io.EOF after the last record.
func (r *Reader) Read() (Item, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Item{}, io.EOF
		}
		return Item{}, fmt.Errorf("read csv record %d: %w", r.row+1, err)
	}
	r.row++
	return r.item(record), nil
}

func (r *Reader) item(record []string) Item {
	get := func(col string) string {
		i, ok := r.columns[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	return Item{
		Row:              r.row,
		ID:               get(ColumnID),
		Type:             get(ColumnType),
		SKU:              get(ColumnSKU),
		Name:             get(ColumnName),
		Published:        get(ColumnPublished),
		ShortDescription: get(ColumnShortDescription),
		Description:      get(ColumnDescription),
		InStock:          get(ColumnInStock),
		Stock:            get(ColumnStock),
		SalePrice:        get(ColumnSalePrice),
		RegularPrice:     get(ColumnRegularPrice),
		Categories:       get(ColumnCategories),
		Tags:             get(ColumnTags),
		Images:           get(ColumnImages),
	}
}

// ReadAll reads every remaining Item.
func (r *Reader) ReadAll() ([]Item, error) {
	var items []Item
	for {
		it, err := r.Read()
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, it)
	}
}

// ReadFile parses the export at path. A missing file is a precondition
// failure.
func ReadFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.PreconditionFailed(fmt.Sprintf("CSV file not found at: %s", path))
		}
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	items, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	return items, nil
}
