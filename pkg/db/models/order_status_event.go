package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/enums"
)

// OrderStatusEvent records one accepted lifecycle transition. The event list
// drives the customer-facing progress stepper and the elapsed-time math used
// by delivery tracking.
type OrderStatusEvent struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus enums.OrderStatus `gorm:"column:from_status;type:text;not null"`
	ToStatus   enums.OrderStatus `gorm:"column:to_status;type:text;not null"`
	Actor      string            `gorm:"column:actor;not null"`
	Note       *string           `gorm:"column:note"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
