package menu

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/db/models"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/types"
)

type stubWeekLoader struct {
	week *models.MenuWeek
	err  error
}

func (s *stubWeekLoader) FindWeekByID(ctx context.Context, id uuid.UUID) (*models.MenuWeek, error) {
	return s.week, s.err
}

func (s *stubWeekLoader) FindCurrentWeek(ctx context.Context, now time.Time) (*models.MenuWeek, error) {
	return s.week, s.err
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func buildWeek() *models.MenuWeek {
	weekID := uuid.New()
	return &models.MenuWeek{
		ID:        weekID,
		WeekOf:    time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC),
		Published: true,
		Days: []models.MenuDay{
			{
				ID:       uuid.New(),
				WeekID:   weekID,
				DayIndex: 0,
				Items: []models.MenuItem{
					{
						ID:                uuid.New(),
						MealType:          enums.MealTypeLunch,
						Name:              "Pollo en Mole",
						Ingredients:       types.StringList{"chicken", "mole poblano", "rice"},
						DietaryTags:       types.StringList{"gluten-free"},
						PriceCents:        1450,
						PremiumPriceCents: intPtr(1850),
						PrepMinutes:       25,
						Active:            true,
					},
					{
						ID:          uuid.New(),
						MealType:    enums.MealTypeDinner,
						Name:        "Sopa de Tortilla",
						Description: strPtr("Classic tortilla soup with avocado and crema."),
						PriceCents:  950,
						PrepMinutes: 15,
						Active:      true,
					},
					{
						ID:         uuid.New(),
						MealType:   enums.MealTypeDessert,
						Name:       "Flan",
						PriceCents: 550,
						Active:     false,
					},
				},
			},
		},
	}
}

func TestResolveItemRegularTier(t *testing.T) {
	week := buildWeek()
	svc, err := NewService(&stubWeekLoader{week: week})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	resolved, err := svc.ResolveItem(context.Background(), Selection{
		WeekID:   week.ID,
		DayIndex: 0,
		MealType: enums.MealTypeLunch,
		ItemName: "Pollo en Mole",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resolved.Tier != enums.PriceTierRegular {
		t.Errorf("expected regular tier default, got %s", resolved.Tier)
	}
	if resolved.UnitPriceCents != 1450 {
		t.Errorf("expected regular price 1450, got %d", resolved.UnitPriceCents)
	}
	if resolved.Description != "chicken, mole poblano, rice" {
		t.Errorf("expected ingredient fallback description, got %q", resolved.Description)
	}
}

func TestResolveItemPremiumTier(t *testing.T) {
	week := buildWeek()
	svc, _ := NewService(&stubWeekLoader{week: week})

	resolved, err := svc.ResolveItem(context.Background(), Selection{
		WeekID:   week.ID,
		DayIndex: 0,
		MealType: enums.MealTypeLunch,
		ItemName: "Pollo en Mole",
		Tier:     enums.PriceTierPremium,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.UnitPriceCents != 1850 {
		t.Errorf("expected premium price 1850, got %d", resolved.UnitPriceCents)
	}
}

func TestResolveItemPremiumNotOffered(t *testing.T) {
	week := buildWeek()
	svc, _ := NewService(&stubWeekLoader{week: week})

	_, err := svc.ResolveItem(context.Background(), Selection{
		WeekID:   week.ID,
		DayIndex: 0,
		MealType: enums.MealTypeDinner,
		ItemName: "Sopa de Tortilla",
		Tier:     enums.PriceTierPremium,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveItemInactiveIsNotFound(t *testing.T) {
	week := buildWeek()
	svc, _ := NewService(&stubWeekLoader{week: week})

	_, err := svc.ResolveItem(context.Background(), Selection{
		WeekID:   week.ID,
		DayIndex: 0,
		MealType: enums.MealTypeDessert,
		ItemName: "Flan",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestResolveItemNameIsCaseInsensitive(t *testing.T) {
	week := buildWeek()
	svc, _ := NewService(&stubWeekLoader{week: week})

	resolved, err := svc.ResolveItem(context.Background(), Selection{
		WeekID:   week.ID,
		DayIndex: 0,
		MealType: enums.MealTypeLunch,
		ItemName: "pollo en mole",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Name != "Pollo en Mole" {
		t.Errorf("expected canonical item name, got %q", resolved.Name)
	}
}

func TestGetCurrentWeekHidesInactiveItems(t *testing.T) {
	week := buildWeek()
	svc, _ := NewService(&stubWeekLoader{week: week})

	dto, err := svc.GetCurrentWeek(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dto.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(dto.Days))
	}
	for _, item := range dto.Days[0].Items {
		if item.Name == "Flan" {
			t.Error("inactive item should not be exposed")
		}
	}
	if len(dto.Days[0].Items) != 2 {
		t.Errorf("expected 2 active items, got %d", len(dto.Days[0].Items))
	}
}
