// Package model defines the catalog entities shared by the stores, the
// service layer and the HTTP handlers.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// PriceScale is the number of fractional digits a price may carry.
const PriceScale = 2

// Product represents a product in the catalog.
type Product struct {
	ID          int             `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:200;not null;uniqueIndex:ux_products_name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	Inventory   int             `json:"inventory" gorm:"not null"`
	Category    string          `json:"category" gorm:"size:100;index:idx_products_category"`
	Active      bool            `json:"active" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName pins the table name used by GORM.
func (Product) TableName() string {
	return "products"
}

// Validate checks the attributes a stored product must satisfy.
func (p Product) Validate() error {
	ve := &catalogerrors.ValidationError{}
	if strings.TrimSpace(p.Name) == "" {
		ve.Add("name", "is required")
	}
	if p.Price.IsNegative() {
		ve.Add("price", "must be non-negative")
	} else if !p.Price.Equal(p.Price.Round(PriceScale)) {
		ve.Add("price", "must have at most 2 fractional digits")
	}
	if p.Inventory < 0 {
		ve.Add("inventory", "must be non-negative")
	}
	return ve.OrNil()
}

// ApplyFields overwrites every mutable attribute of p with the values of src.
// ID and CreatedAt are left untouched.
func (p *Product) ApplyFields(src Product) {
	p.Name = src.Name
	p.Description = src.Description
	p.Price = src.Price
	p.Inventory = src.Inventory
	p.Category = src.Category
	p.Active = src.Active
}

// ProductInput is the JSON payload accepted by create and update.
// Active defaults to true when omitted.
type ProductInput struct {
	ID          int             `json:"id"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Inventory   int             `json:"inventory" binding:"gte=0"`
	Category    string          `json:"category"`
	Active      *bool           `json:"active"`
}

// Product converts the payload into a Product.
func (in ProductInput) Product() Product {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return Product{
		ID:          in.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Inventory:   in.Inventory,
		Category:    strings.TrimSpace(in.Category),
		Active:      active,
	}
}
