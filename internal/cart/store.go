package cart

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/internal/menu"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/types"
)

// LineKey is the full identity of a cart line. Tier is part of the key, so a
// regular and a premium selection of the same dish are independent lines.
type LineKey struct {
	WeekID   uuid.UUID       `json:"week_id"`
	DayIndex int             `json:"day_index"`
	MealType enums.MealType  `json:"meal_type"`
	ItemName string          `json:"item_name"`
	Tier     enums.PriceTier `json:"tier"`
}

func normalizeKey(key LineKey) LineKey {
	key.ItemName = strings.ToLower(strings.TrimSpace(key.ItemName))
	if key.Tier == "" {
		key.Tier = enums.PriceTierRegular
	}
	return key
}

// Line is one cart entry. UnitPriceCents was frozen at selection time and is
// never re-read from the catalog.
type Line struct {
	Key            LineKey          `json:"key"`
	DisplayName    string           `json:"display_name"`
	Description    string           `json:"description"`
	DietaryTags    types.StringList `json:"dietary_tags,omitempty"`
	UnitPriceCents int              `json:"unit_price_cents"`
	PrepMinutes    int              `json:"prep_minutes"`
	Quantity       int              `json:"quantity"`
}

// TotalCents is the line extension.
func (l Line) TotalCents() int {
	return l.UnitPriceCents * l.Quantity
}

// DeliveryDetails holds the checkout form fields collected before
// confirmation. Zero values mean "not provided yet".
type DeliveryDetails struct {
	CustomerName   string        `json:"customer_name"`
	CustomerPhone  string        `json:"customer_phone"`
	DeliveryDate   string        `json:"delivery_date"`
	DeliveryWindow string        `json:"delivery_window"`
	Address        types.Address `json:"address"`
	Notes          string        `json:"notes"`
}

// DeliveryDetailsPatch applies a partial update. Nil fields keep the current
// value.
type DeliveryDetailsPatch struct {
	CustomerName   *string        `json:"customer_name"`
	CustomerPhone  *string        `json:"customer_phone"`
	DeliveryDate   *string        `json:"delivery_date"`
	DeliveryWindow *string        `json:"delivery_window"`
	Address        *types.Address `json:"address"`
	Notes          *string        `json:"notes"`
}

// Limits caps per-line quantities by tier.
type Limits struct {
	MaxQtyRegular int
	MaxQtyPremium int
}

func (l Limits) maxFor(tier enums.PriceTier) int {
	if tier == enums.PriceTierPremium {
		return l.MaxQtyPremium
	}
	return l.MaxQtyRegular
}

// Store is one session's cart. It is not safe for concurrent use; the session
// layer serializes access per session token.
type Store struct {
	lines   []Line
	index   map[LineKey]int
	details DeliveryDetails
	limits  Limits
}

// NewStore builds an empty cart with the given quantity limits.
func NewStore(limits Limits) *Store {
	return &Store{
		index:  map[LineKey]int{},
		limits: limits,
	}
}

// Lines returns the cart lines in insertion order.
func (s *Store) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	return len(s.lines) == 0
}

// ItemCount sums quantities across all lines.
func (s *Store) ItemCount() int {
	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// AddOrIncrement merges a resolved selection into the cart. A zero delta on a
// missing line never creates it; a negative result removes the line. The new
// quantity is clamped to the tier limit.
func (s *Store) AddOrIncrement(item *menu.ResolvedItem, delta int) (*Line, error) {
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resolved item required")
	}

	key := normalizeKey(LineKey{
		WeekID:   item.WeekID,
		DayIndex: item.DayIndex,
		MealType: item.MealType,
		ItemName: item.Name,
		Tier:     item.Tier,
	})

	idx, exists := s.index[key]
	if !exists {
		if delta <= 0 {
			return nil, nil
		}
		qty := s.clamp(key.Tier, delta)
		line := Line{
			Key:            key,
			DisplayName:    item.Name,
			Description:    item.Description,
			DietaryTags:    item.DietaryTags.Clone(),
			UnitPriceCents: item.UnitPriceCents,
			PrepMinutes:    item.PrepMinutes,
			Quantity:       qty,
		}
		s.lines = append(s.lines, line)
		s.index[key] = len(s.lines) - 1
		return &line, nil
	}

	next := s.lines[idx].Quantity + delta
	if next <= 0 {
		s.removeAt(idx)
		return nil, nil
	}
	s.lines[idx].Quantity = s.clamp(key.Tier, next)
	line := s.lines[idx]
	return &line, nil
}

// SetQuantity pins a line to an absolute quantity. Zero or less removes the
// line; anything above the tier limit is clamped, not rejected.
func (s *Store) SetQuantity(key LineKey, quantity int) (*Line, error) {
	key = normalizeKey(key)
	idx, exists := s.index[key]
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if quantity <= 0 {
		s.removeAt(idx)
		return nil, nil
	}
	s.lines[idx].Quantity = s.clamp(key.Tier, quantity)
	line := s.lines[idx]
	return &line, nil
}

// Remove drops a line. Removing a missing line is a no-op.
func (s *Store) Remove(key LineKey) {
	key = normalizeKey(key)
	if idx, exists := s.index[key]; exists {
		s.removeAt(idx)
	}
}

// Clear drops every line and resets the delivery details to their defaults.
func (s *Store) Clear() {
	s.lines = nil
	s.index = map[LineKey]int{}
	s.details = DeliveryDetails{}
}

// SetDeliveryDetails merges the patch into the stored details.
func (s *Store) SetDeliveryDetails(patch DeliveryDetailsPatch) DeliveryDetails {
	if patch.CustomerName != nil {
		s.details.CustomerName = strings.TrimSpace(*patch.CustomerName)
	}
	if patch.CustomerPhone != nil {
		s.details.CustomerPhone = strings.TrimSpace(*patch.CustomerPhone)
	}
	if patch.DeliveryDate != nil {
		s.details.DeliveryDate = strings.TrimSpace(*patch.DeliveryDate)
	}
	if patch.DeliveryWindow != nil {
		s.details.DeliveryWindow = strings.TrimSpace(*patch.DeliveryWindow)
	}
	if patch.Address != nil {
		s.details.Address = *patch.Address
	}
	if patch.Notes != nil {
		s.details.Notes = strings.TrimSpace(*patch.Notes)
	}
	return s.details
}

// DeliveryDetails returns the current checkout form state.
func (s *Store) DeliveryDetails() DeliveryDetails {
	return s.details
}

func (s *Store) clamp(tier enums.PriceTier, quantity int) int {
	limit := s.limits.maxFor(tier)
	if limit > 0 && quantity > limit {
		return limit
	}
	return quantity
}

func (s *Store) removeAt(idx int) {
	key := s.lines[idx].Key
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	delete(s.index, key)
	for i := idx; i < len(s.lines); i++ {
		s.index[s.lines[i].Key] = i
	}
}
