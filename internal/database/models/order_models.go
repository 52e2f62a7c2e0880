package models

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

type ShippingStatus string

const (
	ShippingPreparing ShippingStatus = "preparing"
	ShippingShipped   ShippingStatus = "shipped"
	ShippingDelivered ShippingStatus = "delivered"
)

func (s ShippingStatus) Valid() bool {
	switch s {
	case ShippingPreparing, ShippingShipped, ShippingDelivered:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentNequi PaymentMethod = "nequi"
	PaymentBank  PaymentMethod = "bank"
	PaymentLink  PaymentMethod = "link"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentNequi, PaymentBank, PaymentLink:
		return true
	}
	return false
}

// Order amounts are integer minor currency units.
type Order struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber    string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	CustomerID     int64          `gorm:"index;not null" json:"customer_id"`
	OrderDate      time.Time      `gorm:"index;not null" json:"order_date"`
	Subtotal       int64          `gorm:"not null" json:"subtotal"`
	Tax            int64          `gorm:"not null" json:"tax"`
	Total          int64          `gorm:"not null" json:"total"`
	PaymentMethod  PaymentMethod  `gorm:"type:varchar(16);not null" json:"payment_method"`
	PaymentStatus  PaymentStatus  `gorm:"type:varchar(16);index;not null;default:pending" json:"payment_status"`
	ShippingStatus ShippingStatus `gorm:"type:varchar(16);index;not null;default:preparing" json:"shipping_status"`
	PaymentDate    *time.Time     `json:"payment_date"`
	ShippingDate   *time.Time     `json:"shipping_date"`
	DeliveryDate   *time.Time     `json:"delivery_date"`
	InvoiceNumber  *string        `gorm:"type:varchar(64)" json:"invoice_number"`
	Notes          *string        `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Customer *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type OrderItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64 `gorm:"index;not null" json:"order_id"`
	ProductID int64 `gorm:"index;not null" json:"product_id"`
	Quantity  int64 `gorm:"not null" json:"quantity"`
	UnitPrice int64 `gorm:"not null" json:"unit_price"`
	Subtotal  int64 `gorm:"not null" json:"subtotal"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// OrderSequence holds the last issued order number per calendar year.
type OrderSequence struct {
	Year      int   `gorm:"primaryKey;autoIncrement:false" json:"year"`
	LastValue int64 `gorm:"not null" json:"last_value"`
}
