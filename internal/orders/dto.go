package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/mesaviva-backend/pkg/db/models"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	"github.com/mesaviva/mesaviva-backend/pkg/types"
)

// OrderDTO is the public shape of an order.
type OrderDTO struct {
	ID             uuid.UUID         `json:"id"`
	Status         enums.OrderStatus `json:"status"`
	CustomerName   string            `json:"customer_name"`
	CustomerPhone  string            `json:"customer_phone"`
	DeliveryDate   string            `json:"delivery_date"`
	DeliveryWindow string            `json:"delivery_window"`
	Address        types.Address     `json:"address"`
	Notes          *string           `json:"notes,omitempty"`

	SubtotalCents        int `json:"subtotal_cents"`
	TaxCents             int `json:"tax_cents"`
	DeliveryFeeCents     int `json:"delivery_fee_cents"`
	GratuityCents        int `json:"gratuity_cents"`
	TotalCents           int `json:"total_cents"`
	EstimatedPrepMinutes int `json:"estimated_prep_minutes"`

	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	RefundStatus  enums.RefundStatus  `json:"refund_status"`

	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	Items        []LineItemDTO    `json:"items"`
	StatusEvents []StatusEventDTO `json:"status_events,omitempty"`
}

// LineItemDTO is one frozen order line.
type LineItemDTO struct {
	DayIndex       int              `json:"day_index"`
	MealType       enums.MealType   `json:"meal_type"`
	Name           string           `json:"name"`
	Tier           enums.PriceTier  `json:"tier"`
	Description    string           `json:"description"`
	DietaryTags    types.StringList `json:"dietary_tags,omitempty"`
	UnitPriceCents int              `json:"unit_price_cents"`
	Quantity       int              `json:"quantity"`
	TotalCents     int              `json:"total_cents"`
}

// StatusEventDTO is one accepted lifecycle transition.
type StatusEventDTO struct {
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	Actor      string            `json:"actor"`
	Note       *string           `json:"note,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ToDTO maps the persisted order onto the public shape.
func ToDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:                   order.ID,
		Status:               order.Status,
		CustomerName:         order.CustomerName,
		CustomerPhone:        order.CustomerPhone,
		DeliveryDate:         order.DeliveryDate,
		DeliveryWindow:       order.DeliveryWindow,
		Address:              order.Address,
		Notes:                order.Notes,
		SubtotalCents:        order.SubtotalCents,
		TaxCents:             order.TaxCents,
		DeliveryFeeCents:     order.DeliveryFeeCents,
		GratuityCents:        order.GratuityCents,
		TotalCents:           order.TotalCents,
		EstimatedPrepMinutes: order.EstimatedPrepMinutes,
		PaymentMethod:        order.PaymentMethod,
		PaymentStatus:        order.PaymentStatus,
		RefundStatus:         order.RefundStatus,
		DispatchedAt:         order.DispatchedAt,
		DeliveredAt:          order.DeliveredAt,
		CancelledAt:          order.CancelledAt,
		CreatedAt:            order.CreatedAt,
		Items:                make([]LineItemDTO, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, LineItemDTO{
			DayIndex:       item.DayIndex,
			MealType:       item.MealType,
			Name:           item.Name,
			Tier:           item.Tier,
			Description:    item.Description,
			DietaryTags:    item.DietaryTags.Clone(),
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			TotalCents:     item.TotalCents,
		})
	}
	for _, event := range order.StatusEvents {
		dto.StatusEvents = append(dto.StatusEvents, StatusEventDTO{
			FromStatus: event.FromStatus,
			ToStatus:   event.ToStatus,
			Actor:      event.Actor,
			Note:       event.Note,
			CreatedAt:  event.CreatedAt,
		})
	}
	return dto
}
