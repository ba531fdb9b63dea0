package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/internal/cart"
	"github.com/mesaviva/mesaviva-backend/internal/menu"
	"github.com/mesaviva/mesaviva-backend/internal/orders"
	"github.com/mesaviva/mesaviva-backend/internal/payments"
	"github.com/mesaviva/mesaviva-backend/internal/pricing"
	"github.com/mesaviva/mesaviva-backend/pkg/db"
	"github.com/mesaviva/mesaviva-backend/pkg/db/models"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

// ConfirmInput is the validated payload to confirm the current cart.
type ConfirmInput struct {
	SessionID      uuid.UUID
	IdempotencyKey string
	PaymentMethod  enums.PaymentMethod
}

// Service turns a cart into a confirmed order exactly once per idempotency
// key.
type Service interface {
	Confirm(ctx context.Context, input ConfirmInput) (*orders.OrderDTO, error)
	Quote(ctx context.Context, sessionID uuid.UUID) (*pricing.Quote, error)
	Preview(ctx context.Context, sessionID uuid.UUID) (string, error)
}

type cartAccess interface {
	Load(ctx context.Context, sessionID uuid.UUID) (*cart.Store, error)
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

type menuResolver interface {
	ResolveItem(ctx context.Context, sel menu.Selection) (*menu.ResolvedItem, error)
}

type service struct {
	carts     cartAccess
	menus     menuResolver
	engine    *pricing.Engine
	orderRepo orders.Repository
	orderSvc  orders.Service
	charger   payments.Charger
	logg      *logger.Logger
}

// NewService constructs the checkout service.
func NewService(carts cartAccess, menus menuResolver, engine *pricing.Engine, orderRepo orders.Repository, orderSvc orders.Service, charger payments.Charger, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if menus == nil {
		return nil, fmt.Errorf("menu service required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if charger == nil {
		return nil, fmt.Errorf("charger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:     carts,
		menus:     menus,
		engine:    engine,
		orderRepo: orderRepo,
		orderSvc:  orderSvc,
		charger:   charger,
		logg:      logg,
	}, nil
}

// Quote prices the session's current cart without side effects.
func (s *service) Quote(ctx context.Context, sessionID uuid.UUID) (*pricing.Quote, error) {
	store, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	quote := s.engine.Quote(store.Lines())
	return &quote, nil
}

// Preview renders the shareable summary text for the current cart.
func (s *service) Preview(ctx context.Context, sessionID uuid.UUID) (string, error) {
	store, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	quote := s.engine.Quote(store.Lines())
	return pricing.BuildSummary(store.Lines(), store.DeliveryDetails(), quote), nil
}

// Confirm freezes the cart into an order. A duplicate idempotency key returns
// the original order as a success; a payment failure leaves the draft order
// and the cart untouched so the customer can retry.
func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*orders.OrderDTO, error) {
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	ctx = s.logg.WithSessionID(ctx, input.SessionID.String())

	existing, err := s.orderRepo.FindByIdempotencyKey(ctx, input.IdempotencyKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up idempotency key")
	}
	if existing != nil {
		if existing.SessionID != input.SessionID {
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key belongs to another session")
		}
		if existing.Status != enums.OrderStatusDraft {
			s.logg.Info(s.logg.WithOrderID(ctx, existing.ID.String()), "duplicate confirmation replayed")
			return orders.ToDTO(existing), nil
		}
		// draft left by an earlier failed charge: retry settlement
		return s.settle(ctx, existing)
	}

	store, err := s.carts.Load(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.validateCart(ctx, store); err != nil {
		return nil, err
	}

	order := buildDraft(input, store, s.engine.Quote(store.Lines()))
	if _, err := s.orderRepo.Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "idx_orders_idempotency_key") {
			// concurrent double submit: the first insert wins
			winner, findErr := s.orderRepo.FindByIdempotencyKey(ctx, input.IdempotencyKey)
			if findErr != nil || winner == nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving duplicate submission")
			}
			if winner.SessionID != input.SessionID {
				return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key belongs to another session")
			}
			return orders.ToDTO(winner), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating draft order")
	}

	return s.settle(ctx, order)
}

// settle charges the draft and promotes it to confirmed. The cart is cleared
// only after both steps succeed.
func (s *service) settle(ctx context.Context, order *models.Order) (*orders.OrderDTO, error) {
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	receipt, err := s.charger.Charge(ctx, order.ID, order.TotalCents, order.PaymentMethod)
	if err != nil {
		s.logg.Warn(ctx, "charge failed, draft retained")
		return nil, err
	}

	order.PaymentStatus = receipt.Status
	if receipt.Reference != "" {
		order.PaymentRef = &receipt.Reference
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording payment result")
	}

	dto, err := s.orderSvc.Advance(ctx, order.ID, enums.OrderStatusConfirmed, "checkout", nil)
	if err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, order.SessionID); err != nil {
		// the order stands; an orphaned cart snapshot only wastes a TTL
		s.logg.Warn(ctx, "clearing cart after confirmation failed")
	}
	s.logg.Info(ctx, "order confirmed")
	return dto, nil
}

func (s *service) validateCart(ctx context.Context, store *cart.Store) error {
	if store.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	details := store.DeliveryDetails()
	missing := []string{}
	if details.CustomerName == "" {
		missing = append(missing, "customer_name")
	}
	if details.CustomerPhone == "" {
		missing = append(missing, "customer_phone")
	}
	if details.DeliveryDate == "" {
		missing = append(missing, "delivery_date")
	}
	if details.DeliveryWindow == "" {
		missing = append(missing, "delivery_window")
	}
	if details.Address.IsZero() {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery details incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return s.revalidateLines(ctx, store)
}

// revalidateLines checks every cart line against the live menu. Prices stay
// frozen at selection time; only existence is re-checked, so a dish pulled
// from the menu between add and confirm fails the whole confirmation.
func (s *service) revalidateLines(ctx context.Context, store *cart.Store) error {
	for _, line := range store.Lines() {
		sel := menu.Selection{
			WeekID:   line.Key.WeekID,
			DayIndex: line.Key.DayIndex,
			MealType: line.Key.MealType,
			ItemName: line.Key.ItemName,
			Tier:     line.Key.Tier,
		}
		if _, err := s.menus.ResolveItem(ctx, sel); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				return pkgerrors.New(pkgerrors.CodeConflict, "item is no longer on the menu").
					WithDetails(map[string]any{
						"item_name": line.Key.ItemName,
						"day_index": line.Key.DayIndex,
						"meal_type": string(line.Key.MealType),
					})
			}
			return err
		}
	}
	return nil
}

func buildDraft(input ConfirmInput, store *cart.Store, quote pricing.Quote) *models.Order {
	details := store.DeliveryDetails()
	order := &models.Order{
		ID:                   uuid.New(),
		SessionID:            input.SessionID,
		IdempotencyKey:       input.IdempotencyKey,
		CustomerName:         details.CustomerName,
		CustomerPhone:        details.CustomerPhone,
		DeliveryDate:         details.DeliveryDate,
		DeliveryWindow:       details.DeliveryWindow,
		Address:              details.Address,
		SubtotalCents:        quote.SubtotalCents,
		TaxCents:             quote.TaxCents,
		DeliveryFeeCents:     quote.DeliveryFeeCents,
		GratuityCents:        quote.GratuityCents,
		TotalCents:           quote.TotalCents,
		EstimatedPrepMinutes: quote.EstimatedPrepMinutes,
		Status:               enums.OrderStatusDraft,
		PaymentMethod:        input.PaymentMethod,
		PaymentStatus:        enums.PaymentStatusUnpaid,
		RefundStatus:         enums.RefundStatusNone,
	}
	if details.Notes != "" {
		notes := details.Notes
		order.Notes = &notes
	}
	for _, line := range store.Lines() {
		order.Items = append(order.Items, models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			MenuWeekID:     line.Key.WeekID,
			DayIndex:       line.Key.DayIndex,
			MealType:       line.Key.MealType,
			Name:           line.DisplayName,
			Tier:           line.Key.Tier,
			Description:    line.Description,
			DietaryTags:    line.DietaryTags.Clone(),
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			TotalCents:     line.TotalCents(),
		})
	}
	return order
}
