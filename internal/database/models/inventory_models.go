package models

import "time"

type ProductType string

const (
	ProductSimple   ProductType = "simple"
	ProductVariable ProductType = "variable"
)

type Product struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string      `gorm:"type:varchar(255);not null;index" json:"name"`
	Type      ProductType `gorm:"type:varchar(16);not null;default:simple" json:"type"`
	Category  string      `gorm:"type:varchar(64);index" json:"category"`
	Unit      string      `gorm:"type:varchar(32)" json:"unit"`
	Price     int64       `gorm:"not null" json:"price"`
	Stock     int64       `gorm:"not null;default:0" json:"stock"`
	MinStock  int64       `gorm:"not null" json:"min_stock"`
	Active    bool        `gorm:"not null" json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (p Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

type MovementReason string

const (
	MovementSale         MovementReason = "sale"
	MovementSaleReverted MovementReason = "sale_reverted"
	MovementOrderDeleted MovementReason = "order_deleted"
	MovementRestock      MovementReason = "restock"
	MovementAdjustment   MovementReason = "adjustment"
)

// StockMovement is an append-only journal of every stock change.
type StockMovement struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64          `gorm:"index;not null" json:"product_id"`
	Delta       int64          `gorm:"not null" json:"delta"`
	StockAfter  int64          `gorm:"not null" json:"stock_after"`
	Reason      MovementReason `gorm:"type:varchar(32);not null" json:"reason"`
	OrderID     *int64         `gorm:"index" json:"order_id,omitempty"`
	OrderNumber *string        `gorm:"type:varchar(32)" json:"order_number,omitempty"`
	Note        *string        `gorm:"type:text" json:"note,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
