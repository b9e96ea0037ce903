package purchase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tenantmodels "cardgate/internal/tenant/models"
	dErrors "cardgate/pkg/domainerrors"
)

func testTenant() *tenantmodels.ResolvedTenant {
	return &tenantmodels.ResolvedTenant{CUIT: "20-12345678-9", Database: "tarjetas_centro"}
}

func testPurchase() Purchase {
	return Purchase{
		MerchantID: 77,
		CardID:     501,
		Amount:     1500.50,
		PlanID:     10,
		Date:       time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
		RegisterID: 2,
	}
}

func TestAuthorizationCode(t *testing.T) {
	// March 14 is day 73; timestamp tail is HHMMSS.
	now := time.Date(2025, 3, 14, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "073150405", AuthorizationCode(now))

	// Single-digit days of the year are zero-padded.
	jan2 := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "002000000", AuthorizationCode(jan2))

	// Dec 31 of a leap year is day 366.
	leapEnd := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "366235959", AuthorizationCode(leapEnd))
}

func TestRecord(t *testing.T) {
	store := NewMemory()
	now := time.Date(2025, 3, 14, 15, 4, 5, 0, time.UTC)
	svc := NewService(WithClock(func() time.Time { return now }))

	receipt, err := svc.Record(context.Background(), testTenant(), store, testPurchase())
	require.NoError(t, err)
	assert.Equal(t, int64(1), receipt.Coupon)
	assert.Equal(t, "073150405", receipt.AuthorizationCode)
	assert.NotEmpty(t, receipt.Message)

	records := store.Records()
	require.Len(t, records, 1)
	assert.Equal(t, int64(77), records[0].MerchantID)
	assert.Equal(t, "A", records[0].Charge)
	assert.Equal(t, int64(1), records[0].Coupon)

	// Second purchase advances the coupon sequence.
	receipt, err = svc.Record(context.Background(), testTenant(), store, testPurchase())
	require.NoError(t, err)
	assert.Equal(t, int64(2), receipt.Coupon)

	// No balance movement for the plain record path.
	assert.Zero(t, store.Balance(501))
}

func TestRecordKeepsExplicitCharge(t *testing.T) {
	store := NewMemory()
	svc := NewService()

	p := testPurchase()
	p.Charge = "M"
	_, err := svc.Record(context.Background(), testTenant(), store, p)
	require.NoError(t, err)
	assert.Equal(t, "M", store.Records()[0].Charge)
}

func TestRecordAndUpdateBalance(t *testing.T) {
	store := NewMemory()
	svc := NewService()

	p := testPurchase()
	p.Charge = "M" // combined loads run in automatic mode regardless
	_, err := svc.RecordAndUpdateBalance(context.Background(), testTenant(), store, p)
	require.NoError(t, err)

	assert.Equal(t, "A", store.Records()[0].Charge)
	assert.InDelta(t, 1500.50, store.Balance(501), 0.001)
}

func TestRecordValidation(t *testing.T) {
	store := NewMemory()
	svc := NewService()

	mutations := []func(*Purchase){
		func(p *Purchase) { p.MerchantID = 0 },
		func(p *Purchase) { p.CardID = -1 },
		func(p *Purchase) { p.PlanID = 0 },
		func(p *Purchase) { p.Amount = 0 },
		func(p *Purchase) { p.Amount = -5 },
		func(p *Purchase) { p.Date = time.Time{} },
	}
	for _, mutate := range mutations {
		p := testPurchase()
		mutate(&p)
		_, err := svc.Record(context.Background(), testTenant(), store, p)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	}
	assert.Empty(t, store.Records())
}

func TestRecordStoreFailures(t *testing.T) {
	store := NewMemory()
	svc := NewService()

	store.FailNextCoupon = errors.New("deadlock detected")
	_, err := svc.Record(context.Background(), testTenant(), store, testPurchase())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	store.FailRecord = errors.New("procedure grabar_compra does not exist")
	_, err = svc.Record(context.Background(), testTenant(), store, testPurchase())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	var domainErr *dErrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.NotContains(t, domainErr.Message, "grabar_compra")
}

func TestUpdateBalance(t *testing.T) {
	store := NewMemory()
	svc := NewService()

	err := svc.UpdateBalance(context.Background(), testTenant(), store, BalanceUpdate{CardID: 501, Amount: -200})
	require.NoError(t, err)
	assert.InDelta(t, -200, store.Balance(501), 0.001)

	err = svc.UpdateBalance(context.Background(), testTenant(), store, BalanceUpdate{CardID: 0, Amount: 10})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}
