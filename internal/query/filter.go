// Package query implements the product filter: up to four optional
// predicates (name substring, category, inclusive price bounds) combined
// with logical AND over an ordered product slice.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"

	"github.com/Humphrey-He/prodcat/internal/model"
	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
)

// Query parameter names understood by ParseCriteria.
const (
	ParamName     = "name"
	ParamCategory = "category"
	ParamMinPrice = "minPrice"
	ParamMaxPrice = "maxPrice"
)

// Criteria holds the optional filter predicates. A nil field imposes no
// constraint.
type Criteria struct {
	Name     *string
	Category *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// IsEmpty reports whether no criterion is set.
func (c Criteria) IsEmpty() bool {
	return c.Name == nil && c.Category == nil && c.MinPrice == nil && c.MaxPrice == nil
}

// Match reports whether p satisfies every supplied criterion.
func (c Criteria) Match(p model.Product) bool {
	if c.Name != nil && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(*c.Name)) {
		return false
	}
	if c.Category != nil && !strings.EqualFold(p.Category, *c.Category) {
		return false
	}
	if c.MinPrice != nil && p.Price.LessThan(*c.MinPrice) {
		return false
	}
	if c.MaxPrice != nil && p.Price.GreaterThan(*c.MaxPrice) {
		return false
	}
	return true
}

// Key returns a stable identifier of the criteria, usable as a cache key
// suffix. Equal criteria always produce the same key.
func (c Criteria) Key() string {
	var b strings.Builder
	writePart := func(name string, set bool, value string) {
		b.WriteString(name)
		if set {
			b.WriteByte('=')
			b.WriteString(value)
		}
		b.WriteByte(0)
	}
	writePart(ParamName, c.Name != nil, lowerOrEmpty(c.Name))
	writePart(ParamCategory, c.Category != nil, lowerOrEmpty(c.Category))
	writePart(ParamMinPrice, c.MinPrice != nil, decimalOrEmpty(c.MinPrice))
	writePart(ParamMaxPrice, c.MaxPrice != nil, decimalOrEmpty(c.MaxPrice))

	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

// Apply returns the products matching c in their original order. The
// result is never nil.
func Apply(products []model.Product, c Criteria) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if c.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// ParseCriteria reads the filter criteria from query parameters. Blank
// values count as omitted; malformed prices are an invalid-input error.
func ParseCriteria(values url.Values) (Criteria, error) {
	var c Criteria
	if v := strings.TrimSpace(values.Get(ParamName)); v != "" {
		c.Name = &v
	}
	if v := strings.TrimSpace(values.Get(ParamCategory)); v != "" {
		c.Category = &v
	}

	ve := &catalogerrors.ValidationError{}
	var err error
	if c.MinPrice, err = parsePrice(values.Get(ParamMinPrice)); err != nil {
		ve.Add(ParamMinPrice, "must be a decimal number")
	}
	if c.MaxPrice, err = parsePrice(values.Get(ParamMaxPrice)); err != nil {
		ve.Add(ParamMaxPrice, "must be a decimal number")
	}
	if err := ve.OrNil(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

func parsePrice(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func lowerOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(*s)
}

func decimalOrEmpty(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
