package menu

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/db/models"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	"github.com/mesaviva/mesaviva-backend/pkg/types"
)

// WeekDTO is the public shape of a menu rotation.
type WeekDTO struct {
	ID        uuid.UUID `json:"id"`
	WeekOf    time.Time `json:"week_of"`
	Published bool      `json:"published"`
	Days      []DayDTO  `json:"days"`
}

// DayDTO groups the items offered on one day of the week.
type DayDTO struct {
	DayIndex int       `json:"day_index"`
	Items    []ItemDTO `json:"items"`
}

// ItemDTO is the public shape of one dish. PremiumPriceCents is omitted when
// the dish has no premium tier.
type ItemDTO struct {
	ID                uuid.UUID        `json:"id"`
	MealType          enums.MealType   `json:"meal_type"`
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	DietaryTags       types.StringList `json:"dietary_tags,omitempty"`
	PriceCents        int              `json:"price_cents"`
	PremiumPriceCents *int             `json:"premium_price_cents,omitempty"`
	PrepMinutes       int              `json:"prep_minutes"`
}

func toWeekDTO(week *models.MenuWeek) *WeekDTO {
	dto := &WeekDTO{
		ID:        week.ID,
		WeekOf:    week.WeekOf,
		Published: week.Published,
		Days:      make([]DayDTO, 0, len(week.Days)),
	}
	for di := range week.Days {
		day := &week.Days[di]
		dayDTO := DayDTO{
			DayIndex: day.DayIndex,
			Items:    make([]ItemDTO, 0, len(day.Items)),
		}
		for ii := range day.Items {
			item := &day.Items[ii]
			if !item.Active {
				continue
			}
			dayDTO.Items = append(dayDTO.Items, ItemDTO{
				ID:                item.ID,
				MealType:          item.MealType,
				Name:              item.Name,
				Description:       describeItem(item),
				DietaryTags:       item.DietaryTags.Clone(),
				PriceCents:        item.PriceCents,
				PremiumPriceCents: item.PremiumPriceCents,
				PrepMinutes:       item.PrepMinutes,
			})
		}
		dto.Days = append(dto.Days, dayDTO)
	}
	return dto
}
