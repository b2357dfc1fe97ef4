package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User owns orders (1-N through Order.UserID). Only the schema is
// declared; no catalog operation reads or writes users. The foreign keys
// live on the child tables, so relations are declared on the parent side.
type User struct {
	UserID       int64     `json:"userid" gorm:"column:userid;primaryKey"`
	Username     string    `json:"username" gorm:"size:100;not null;uniqueIndex:users_username_key"`
	Name         *string   `json:"name,omitempty" gorm:"size:200"`
	Email        *string   `json:"email,omitempty" gorm:"size:320;uniqueIndex:users_email_key"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	IsAdmin      bool      `json:"is_admin" gorm:"column:is_admin;not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Orders []Order `json:"-" gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:RESTRICT"`
}

// TableName pins the table name used by GORM.
func (User) TableName() string {
	return "users"
}

// Order groups the order items of one user.
type Order struct {
	OrderID     int64           `json:"orderid" gorm:"column:orderid;primaryKey"`
	UserID      int64           `json:"userid" gorm:"column:userid;not null;index:idx_orders_userid"`
	Total       decimal.Decimal `json:"total" gorm:"type:numeric(12,2);not null"`
	ExternalRef *string         `json:"external_ref,omitempty" gorm:"column:external_ref;size:100;uniqueIndex:ux_orders_external_ref"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Items []OrderItem `json:"-" gorm:"foreignKey:OrderID;references:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName pins the table name used by GORM.
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one product line of an order. LineTotal is computed by the
// database as qty * unit_price and is never written by the ORM.
type OrderItem struct {
	OrderID   int64            `json:"orderid" gorm:"column:orderid;primaryKey;autoIncrement:false"`
	ProductID int              `json:"productid" gorm:"column:productid;primaryKey;autoIncrement:false;index:idx_items_productid"`
	Qty       int              `json:"qty" gorm:"not null"`
	UnitPrice decimal.Decimal  `json:"unit_price" gorm:"column:unit_price;type:numeric(10,2);not null"`
	LineTotal *decimal.Decimal `json:"line_total,omitempty" gorm:"column:line_total;->;type:numeric(12,2) GENERATED ALWAYS AS (qty * unit_price) STORED"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	Product *Product `json:"-" gorm:"foreignKey:ProductID;references:ID;constraint:OnDelete:RESTRICT"`
}

// TableName pins the table name used by GORM.
func (OrderItem) TableName() string {
	return "order_items"
}

// Schema lists every entity migrated alongside products, in dependency order.
func Schema() []interface{} {
	return []interface{}{&User{}, &Order{}, &Product{}, &OrderItem{}}
}
