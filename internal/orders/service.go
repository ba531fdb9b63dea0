package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaviva/mesaviva-backend/internal/cart"
	"github.com/mesaviva/mesaviva-backend/internal/payments"
	"github.com/mesaviva/mesaviva-backend/internal/pricing"
	"github.com/mesaviva/mesaviva-backend/pkg/db"
	"github.com/mesaviva/mesaviva-backend/pkg/db/models"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	pkgerrors "github.com/mesaviva/mesaviva-backend/pkg/errors"
	"github.com/mesaviva/mesaviva-backend/pkg/logger"
)

// TransitionListener is notified after a transition commits. Tracking and the
// websocket fanout hang off this hook.
type TransitionListener interface {
	OnOrderTransition(ctx context.Context, order *models.Order, from, to enums.OrderStatus)
}

// Service exposes order reads and lifecycle transitions.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	GetForSession(ctx context.Context, id, sessionID uuid.UUID) (*OrderDTO, error)
	Summary(ctx context.Context, id, sessionID uuid.UUID) (string, error)
	List(ctx context.Context, status *enums.OrderStatus) ([]OrderDTO, error)
	Advance(ctx context.Context, id uuid.UUID, next enums.OrderStatus, actor string, note *string) (*OrderDTO, error)
	Cancel(ctx context.Context, id uuid.UUID, actor string, note *string) (*OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo      Repository
	txRunner  txRunner
	refunder  payments.Refunder
	logg      *logger.Logger
	listeners []TransitionListener
	now       func() time.Time
}

// NewService constructs an orders service instance.
func NewService(repo Repository, dbClient *db.Client, refunder payments.Refunder, logg *logger.Logger, listeners ...TransitionListener) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if refunder == nil {
		return nil, fmt.Errorf("refunder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		txRunner:  dbClient,
		refunder:  refunder,
		logg:      logg,
		listeners: listeners,
		now:       time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToDTO(order), nil
}

// GetForSession scopes the read to the session that placed the order. Foreign
// orders read as not found, never as forbidden, to avoid leaking their
// existence.
func (s *service) GetForSession(ctx context.Context, id, sessionID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.SessionID != sessionID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return ToDTO(order), nil
}

// Summary renders the shareable plain-text summary from the frozen order
// snapshot.
func (s *service) Summary(ctx context.Context, id, sessionID uuid.UUID) (string, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if order.SessionID != sessionID {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	lines := make([]cart.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, cart.Line{
			Key:            cart.LineKey{Tier: item.Tier},
			DisplayName:    item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	details := cart.DeliveryDetails{
		CustomerName:   order.CustomerName,
		CustomerPhone:  order.CustomerPhone,
		DeliveryDate:   order.DeliveryDate,
		DeliveryWindow: order.DeliveryWindow,
		Address:        order.Address,
	}
	if order.Notes != nil {
		details.Notes = *order.Notes
	}
	quote := pricing.Quote{
		SubtotalCents:    order.SubtotalCents,
		TaxCents:         order.TaxCents,
		DeliveryFeeCents: order.DeliveryFeeCents,
		GratuityCents:    order.GratuityCents,
		TotalCents:       order.TotalCents,
	}
	return pricing.BuildSummary(lines, details, quote), nil
}

func (s *service) List(ctx context.Context, status *enums.OrderStatus) ([]OrderDTO, error) {
	orders, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	dtos := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, *ToDTO(&orders[i]))
	}
	return dtos, nil
}

func (s *service) Advance(ctx context.Context, id uuid.UUID, next enums.OrderStatus, actor string, note *string) (*OrderDTO, error) {
	if next == enums.OrderStatusCancelled {
		return s.Cancel(ctx, id, actor, note)
	}
	return s.transition(ctx, id, next, actor, note)
}

// Cancel stops the order if the courier has not been dispatched. Paid orders
// get their refund kicked off inside the same transaction as the status flip.
func (s *service) Cancel(ctx context.Context, id uuid.UUID, actor string, note *string) (*OrderDTO, error) {
	return s.transition(ctx, id, enums.OrderStatusCancelled, actor, note)
}

func (s *service) transition(ctx context.Context, id uuid.UUID, next enums.OrderStatus, actor string, note *string) (*OrderDTO, error) {
	if strings.TrimSpace(actor) == "" {
		actor = "system"
	}

	var updated *models.Order
	var from enums.OrderStatus
	var changed bool

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// row lock: a dispatch and a cancel arriving together must not
		// both validate against the same stale status
		order, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = order.Status

		changed, err = ValidateTransition(order.Status, next)
		if err != nil {
			return err
		}
		if !changed {
			updated = order
			return nil
		}

		now := s.now()
		order.Status = next
		switch next {
		case enums.OrderStatusOutForDelivery:
			order.DispatchedAt = &now
		case enums.OrderStatusDelivered:
			order.DeliveredAt = &now
			// pay-on-delivery settles at the door
			if order.PaymentStatus == enums.PaymentStatusUnpaid {
				order.PaymentStatus = enums.PaymentStatusPaid
			}
		case enums.OrderStatusCancelled:
			order.CancelledAt = &now
			if err := s.refundIfPaid(ctx, order); err != nil {
				return err
			}
		}

		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving order transition")
		}
		event := &models.OrderStatusEvent{
			ID:         uuid.New(),
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   next,
			Actor:      actor,
			Note:       note,
		}
		if err := repo.AppendStatusEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording status event")
		}
		order.StatusEvents = append(order.StatusEvents, *event)
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		meta := map[string]any{"from": string(from), "to": string(next), "actor": actor}
		s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, id.String()), meta), "order status changed")
		for _, listener := range s.listeners {
			listener.OnOrderTransition(ctx, updated, from, next)
		}
	}
	return ToDTO(updated), nil
}

// refundIfPaid reverses a captured payment during cancellation. Unpaid orders
// just stop; there is nothing to give back.
func (s *service) refundIfPaid(ctx context.Context, order *models.Order) error {
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return nil
	}
	reference := ""
	if order.PaymentRef != nil {
		reference = *order.PaymentRef
	}
	if err := s.refunder.Refund(ctx, order.ID, reference, order.TotalCents); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refunding cancelled order")
	}
	order.PaymentStatus = enums.PaymentStatusRefunded
	order.RefundStatus = enums.RefundStatusRefunded
	return nil
}
