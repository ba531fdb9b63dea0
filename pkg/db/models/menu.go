package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	"github.com/mesaviva/mesaviva-backend/pkg/types"
)

// MenuWeek is one rotation of the weekly menu. The core only reads these rows;
// content management lives elsewhere.
type MenuWeek struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WeekOf    time.Time `gorm:"column:week_of;not null;uniqueIndex"`
	Published bool      `gorm:"column:published;not null;default:false"`
	Days      []MenuDay `gorm:"foreignKey:WeekID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// MenuDay orders the days inside a week. DayIndex is 0-based Monday-first.
type MenuDay struct {
	ID       uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WeekID   uuid.UUID  `gorm:"column:week_id;type:uuid;not null;index"`
	DayIndex int        `gorm:"column:day_index;not null"`
	Items    []MenuItem `gorm:"foreignKey:DayID;constraint:OnDelete:CASCADE"`
}

// MenuItem is one dish offered on a day. PremiumPriceCents is nil when the
// dish has no premium tier.
type MenuItem struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DayID             uuid.UUID        `gorm:"column:day_id;type:uuid;not null;index"`
	MealType          enums.MealType   `gorm:"column:meal_type;type:text;not null"`
	Name              string           `gorm:"column:name;not null"`
	Description       *string          `gorm:"column:description"`
	Ingredients       types.StringList `gorm:"column:ingredients;type:jsonb;serializer:json"`
	DietaryTags       types.StringList `gorm:"column:dietary_tags;type:jsonb;serializer:json"`
	PriceCents        int              `gorm:"column:price_cents;not null"`
	PremiumPriceCents *int             `gorm:"column:premium_price_cents"`
	PrepMinutes       int              `gorm:"column:prep_minutes;not null;default:0"`
	Active            bool             `gorm:"column:active;not null;default:true"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
