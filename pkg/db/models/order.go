package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	"github.com/mesaviva/mesaviva-backend/pkg/types"
)

// Order is the durable snapshot written at confirmation time. Line items are
// copied from the cart, never referenced, and TotalCents is frozen: it only
// moves through an explicit refund/cancellation event.
type Order struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID      uuid.UUID `gorm:"column:session_id;type:uuid;not null;index"`
	IdempotencyKey string    `gorm:"column:idempotency_key;not null;uniqueIndex:idx_orders_idempotency_key"`

	CustomerName  string `gorm:"column:customer_name;not null"`
	CustomerPhone string `gorm:"column:customer_phone;not null"`

	DeliveryDate   string        `gorm:"column:delivery_date;not null"`
	DeliveryWindow string        `gorm:"column:delivery_window;not null"`
	Address        types.Address `gorm:"column:address;type:jsonb;serializer:json"`
	Notes          *string       `gorm:"column:notes"`

	SubtotalCents    int `gorm:"column:subtotal_cents;not null"`
	TaxCents         int `gorm:"column:tax_cents;not null;default:0"`
	DeliveryFeeCents int `gorm:"column:delivery_fee_cents;not null;default:0"`
	GratuityCents    int `gorm:"column:gratuity_cents;not null;default:0"`
	TotalCents       int `gorm:"column:total_cents;not null"`

	EstimatedPrepMinutes int `gorm:"column:estimated_prep_minutes;not null;default:0"`

	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'draft'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cash'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	PaymentRef    *string             `gorm:"column:payment_ref"`
	RefundStatus  enums.RefundStatus  `gorm:"column:refund_status;type:text;not null;default:'none'"`

	DispatchedAt *time.Time `gorm:"column:dispatched_at"`
	DeliveredAt  *time.Time `gorm:"column:delivered_at"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at"`

	Items        []OrderLineItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusEvents []OrderStatusEvent `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
