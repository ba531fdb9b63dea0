package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mesaviva/mesaviva-backend/pkg/db/models"
	"github.com/mesaviva/mesaviva-backend/pkg/enums"
	"github.com/mesaviva/mesaviva-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  idempotency_key TEXT NOT NULL UNIQUE,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  delivery_date TEXT NOT NULL,
  delivery_window TEXT NOT NULL,
  address TEXT,
  notes TEXT,
  subtotal_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL DEFAULT 0,
  delivery_fee_cents INTEGER NOT NULL DEFAULT 0,
  gratuity_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  estimated_prep_minutes INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'draft',
  payment_method TEXT NOT NULL DEFAULT 'cash',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  payment_ref TEXT,
  refund_status TEXT NOT NULL DEFAULT 'none',
  dispatched_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  menu_week_id TEXT NOT NULL,
  day_index INTEGER NOT NULL,
  meal_type TEXT NOT NULL,
  name TEXT NOT NULL,
  tier TEXT NOT NULL DEFAULT 'regular',
  description TEXT NOT NULL,
  dietary_tags TEXT,
  unit_price_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`
	statusEvents := `
CREATE TABLE IF NOT EXISTS order_status_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  from_status TEXT NOT NULL,
  to_status TEXT NOT NULL,
  actor TEXT NOT NULL,
  note TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(lineItems).Error)
	require.NoError(t, db.Exec(statusEvents).Error)
	return db
}

func newTestOrder(sessionID uuid.UUID, key string) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		SessionID:      sessionID,
		IdempotencyKey: key,
		CustomerName:   "Ana",
		CustomerPhone:  "+52 55 1234 5678",
		DeliveryDate:   "2025-08-12",
		DeliveryWindow: "12:00-14:00",
		Address: types.Address{
			Line1:      "Av. Reforma 100",
			City:       "CDMX",
			State:      "CDMX",
			PostalCode: "06600",
			Country:    "MX",
		},
		SubtotalCents: 2900,
		TaxCents:      254,
		TotalCents:    3654,
		Status:        enums.OrderStatusDraft,
		PaymentMethod: enums.PaymentMethodCash,
		PaymentStatus: enums.PaymentStatusUnpaid,
		RefundStatus:  enums.RefundStatusNone,
		Items: []models.OrderLineItem{
			{
				ID:             uuid.New(),
				MenuWeekID:     uuid.New(),
				DayIndex:       1,
				MealType:       enums.MealTypeLunch,
				Name:           "Chiles Rellenos",
				Tier:           enums.PriceTierRegular,
				Description:    "poblano, queso, salsa roja",
				UnitPriceCents: 1450,
				Quantity:       2,
				TotalCents:     2900,
			},
		},
	}
}

func TestCreateAndFindByID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestOrder(uuid.New(), "key-1"))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Chiles Rellenos", found.Items[0].Name)
	assert.Equal(t, 2900, found.SubtotalCents)
}

func TestFindByIDForUpdate(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestOrder(uuid.New(), "key-lock"))
	require.NoError(t, err)

	// sqlite skips the FOR UPDATE clause; the read must still work
	found, err := repo.FindByIDForUpdate(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByIDForUpdate(ctx, uuid.New())
	require.Error(t, err)
}

func TestFindByIDMissing(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestFindByIdempotencyKey(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestOrder(uuid.New(), "key-dup"))
	require.NoError(t, err)

	found, err := repo.FindByIdempotencyKey(ctx, "key-dup")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := repo.FindByIdempotencyKey(ctx, "key-other")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIdempotencyKeyIsUnique(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, newTestOrder(uuid.New(), "key-unique"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newTestOrder(uuid.New(), "key-unique"))
	require.Error(t, err)
}

func TestListByStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	draft := newTestOrder(uuid.New(), "key-a")
	_, err := repo.Create(ctx, draft)
	require.NoError(t, err)

	confirmed := newTestOrder(uuid.New(), "key-b")
	confirmed.Status = enums.OrderStatusConfirmed
	_, err = repo.Create(ctx, confirmed)
	require.NoError(t, err)

	status := enums.OrderStatusConfirmed
	got, err := repo.ListByStatus(ctx, &status)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, confirmed.ID, got[0].ID)

	all, err := repo.ListByStatus(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListStaleDrafts(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	old := newTestOrder(uuid.New(), "key-old")
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Create(old).Error)

	fresh := newTestOrder(uuid.New(), "key-fresh")
	_, err := repo.Create(ctx, fresh)
	require.NoError(t, err)

	confirmedOld := newTestOrder(uuid.New(), "key-confirmed")
	confirmedOld.Status = enums.OrderStatusConfirmed
	confirmedOld.CreatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Create(confirmedOld).Error)

	stale, err := repo.ListStaleDrafts(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, old.ID, stale[0].ID)
}

func TestSaveAndStatusEvents(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order, err := repo.Create(ctx, newTestOrder(uuid.New(), "key-save"))
	require.NoError(t, err)

	order.Status = enums.OrderStatusConfirmed
	require.NoError(t, repo.Save(ctx, order))
	require.NoError(t, repo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
		ID:         uuid.New(),
		OrderID:    order.ID,
		FromStatus: enums.OrderStatusDraft,
		ToStatus:   enums.OrderStatusConfirmed,
		Actor:      "system",
	}))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, found.Status)
	require.Len(t, found.StatusEvents, 1)
	assert.Equal(t, enums.OrderStatusConfirmed, found.StatusEvents[0].ToStatus)
}
