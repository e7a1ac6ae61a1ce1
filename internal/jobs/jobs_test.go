package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papeleria/backend/internal/cache"
	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/service"
	"papeleria/backend/internal/store/memory"
)

type fakeSweeper struct {
	asOf      time.Time
	threshold int
	err       error
}

func (f *fakeSweeper) OverdueClientOrders(_ context.Context, asOf time.Time) ([]domain.ClientOrder, error) {
	f.asOf = asOf
	return nil, f.err
}

func (f *fakeSweeper) LowStockSweep(_ context.Context, threshold int) ([]domain.Product, error) {
	f.threshold = threshold
	return nil, f.err
}

func TestEmptySchedulesDisableJobs(t *testing.T) {
	s := NewScheduler(&fakeSweeper{}, Config{OverdueSchedule: "0 8 * * *"})
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	assert.Equal(t, []string{"overdue-orders"}, s.Jobs())
}

func TestInvalidScheduleFails(t *testing.T) {
	s := NewScheduler(&fakeSweeper{}, Config{LowStockSchedule: "every now and then"})
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "low-stock")
}

func TestRunUsesClockAndThreshold(t *testing.T) {
	fake := &fakeSweeper{}
	s := NewScheduler(fake, Config{LowStockThreshold: 7})
	fixed := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.RunOverdue(context.Background()))
	require.NoError(t, s.RunLowStock(context.Background()))
	assert.Equal(t, fixed, fake.asOf)
	assert.Equal(t, 7, fake.threshold)

	fake.err = errors.New("db down")
	assert.Error(t, s.RunOverdue(context.Background()))
}

func TestRunAgainstService(t *testing.T) {
	svc := service.New(memory.NewSeeded(), cache.NoopCatalogCache{}, 0)
	ctx := service.WithActor(context.Background(), domain.Actor{UserID: "usr-cajero", Role: domain.RoleCashier})
	_, err := svc.CreateClientOrder(ctx, domain.ClientOrderRequest{ClientID: "cli-demo", TotalCents: 2500, EstimatedDelivery: "2026-01-10"})
	require.NoError(t, err)

	s := NewScheduler(svc, Config{})
	assert.NoError(t, s.RunOverdue(context.Background()))
	assert.NoError(t, s.RunLowStock(context.Background()))
}
