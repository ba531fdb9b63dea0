package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	"github.com/mesaviva/mesaviva-backend/pkg/types"
)

// OrderLineItem captures the snapshot of a cart line at confirmation. The unit
// price was captured at selection time and is immune to later catalog changes.
type OrderLineItem struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	MenuWeekID uuid.UUID       `gorm:"column:menu_week_id;type:uuid;not null"`
	DayIndex   int             `gorm:"column:day_index;not null"`
	MealType   enums.MealType  `gorm:"column:meal_type;type:text;not null"`
	Name       string          `gorm:"column:name;not null"`
	Tier       enums.PriceTier `gorm:"column:tier;type:text;not null;default:'regular'"`

	Description string           `gorm:"column:description;not null"`
	DietaryTags types.StringList `gorm:"column:dietary_tags;type:jsonb;serializer:json"`

	UnitPriceCents int `gorm:"column:unit_price_cents;not null"`
	Quantity       int `gorm:"column:quantity;not null"`
	TotalCents     int `gorm:"column:total_cents;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
