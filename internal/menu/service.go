package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/db/models"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/types"
)

// Service exposes read access to the weekly menu catalog.
type Service interface {
	GetCurrentWeek(ctx context.Context) (*WeekDTO, error)
	GetWeek(ctx context.Context, weekID uuid.UUID) (*WeekDTO, error)
	ResolveItem(ctx context.Context, sel Selection) (*ResolvedItem, error)
}

// Selection names one dish inside a week. Tier defaults to regular when the
// zero value is passed.
type Selection struct {
	WeekID   uuid.UUID
	DayIndex int
	MealType enums.MealType
	ItemName string
	Tier     enums.PriceTier
}

// ResolvedItem is the priced snapshot a cart line is built from. The unit
// price is captured here and never re-read from the catalog afterwards.
type ResolvedItem struct {
	WeekID         uuid.UUID
	DayIndex       int
	MealType       enums.MealType
	Name           string
	Tier           enums.PriceTier
	Description    string
	DietaryTags    types.StringList
	UnitPriceCents int
	PrepMinutes    int
}

type weekLoader interface {
	FindWeekByID(ctx context.Context, id uuid.UUID) (*models.MenuWeek, error)
	FindCurrentWeek(ctx context.Context, now time.Time) (*models.MenuWeek, error)
}

type service struct {
	repo weekLoader
	now  func() time.Time
}

// NewService constructs a menu service instance.
func NewService(repo weekLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) GetCurrentWeek(ctx context.Context) (*WeekDTO, error) {
	week, err := s.repo.FindCurrentWeek(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return toWeekDTO(week), nil
}

func (s *service) GetWeek(ctx context.Context, weekID uuid.UUID) (*WeekDTO, error) {
	week, err := s.repo.FindWeekByID(ctx, weekID)
	if err != nil {
		return nil, err
	}
	return toWeekDTO(week), nil
}

// ResolveItem validates the selection against the catalog and freezes the
// tier-specific unit price. Premium selection of a dish without a premium
// price is a validation error, not a silent fallback.
func (s *service) ResolveItem(ctx context.Context, sel Selection) (*ResolvedItem, error) {
	if strings.TrimSpace(sel.ItemName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	tier := sel.Tier
	if tier == "" {
		tier = enums.PriceTierRegular
	}
	if !tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown price tier").
			WithDetails(map[string]any{"tier": string(sel.Tier)})
	}
	if !sel.MealType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown meal type").
			WithDetails(map[string]any{"meal_type": string(sel.MealType)})
	}

	week, err := s.repo.FindWeekByID(ctx, sel.WeekID)
	if err != nil {
		return nil, err
	}

	item := findItem(week, sel.DayIndex, sel.MealType, sel.ItemName)
	if item == nil || !item.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found").
			WithDetails(map[string]any{
				"day_index": sel.DayIndex,
				"meal_type": string(sel.MealType),
				"item":      sel.ItemName,
			})
	}

	unitPrice := item.PriceCents
	if tier == enums.PriceTierPremium {
		if item.PremiumPriceCents == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item has no premium tier").
				WithDetails(map[string]any{"item": item.Name})
		}
		unitPrice = *item.PremiumPriceCents
	}

	return &ResolvedItem{
		WeekID:         sel.WeekID,
		DayIndex:       sel.DayIndex,
		MealType:       sel.MealType,
		Name:           item.Name,
		Tier:           tier,
		Description:    describeItem(item),
		DietaryTags:    item.DietaryTags.Clone(),
		UnitPriceCents: unitPrice,
		PrepMinutes:    item.PrepMinutes,
	}, nil
}

func findItem(week *models.MenuWeek, dayIndex int, mealType enums.MealType, name string) *models.MenuItem {
	for di := range week.Days {
		day := &week.Days[di]
		if day.DayIndex != dayIndex {
			continue
		}
		for ii := range day.Items {
			item := &day.Items[ii]
			if item.MealType == mealType && strings.EqualFold(item.Name, name) {
				return item
			}
		}
	}
	return nil
}

// describeItem prefers the curated description and falls back to the
// ingredient list when no description was written.
func describeItem(item *models.MenuItem) string {
	if item.Description != nil && strings.TrimSpace(*item.Description) != "" {
		return *item.Description
	}
	return strings.Join(item.Ingredients, ", ")
}
