package purchase

import (
	"context"
	"database/sql"
	"fmt"
)

// Record is the fully resolved row handed to the recording procedure: the
// caller's purchase plus the server-generated coupon and authorization code.
type Record struct {
	Purchase
	Coupon            int64
	AuthorizationCode string
}

// Store writes purchases into one tenant database.
type Store interface {
	// NextCoupon advances the tenant-wide coupon sequence and returns the new
	// number.
	NextCoupon(ctx context.Context) (int64, error)

	// RecordPurchase runs the recording procedure and returns its message.
	RecordPurchase(ctx context.Context, rec Record) (string, error)

	// UpdateCardBalance applies the amount to the card's balance.
	UpdateCardBalance(ctx context.Context, cardID int64, amount float64) error
}

const (
	nextCouponQuery = `UPDATE "Numeros" SET cupon = cupon + 1 RETURNING cupon`

	recordPurchaseQuery = `SELECT mensaje FROM grabar_compra($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateBalanceQuery = `SELECT grabar_saldo_tarjeta($1, $2)`
)

// SQLStore implements Store over a tenant database handle owned by the
// caller. The recording procedures manage their own transactions, mirroring
// the tenants' existing schema.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) NextCoupon(ctx context.Context) (int64, error) {
	var coupon int64
	if err := s.db.QueryRowContext(ctx, nextCouponQuery).Scan(&coupon); err != nil {
		return 0, fmt.Errorf("advancing coupon sequence: %w", err)
	}
	return coupon, nil
}

func (s *SQLStore) RecordPurchase(ctx context.Context, rec Record) (string, error) {
	var message string
	err := s.db.QueryRowContext(ctx, recordPurchaseQuery,
		rec.MerchantID,
		rec.CardID,
		rec.Amount,
		rec.PlanID,
		rec.Coupon,
		rec.Charge,
		rec.Date,
		rec.AuthorizationCode,
		rec.RegisterID,
	).Scan(&message)
	if err != nil {
		return "", fmt.Errorf("recording purchase: %w", err)
	}
	return message, nil
}

func (s *SQLStore) UpdateCardBalance(ctx context.Context, cardID int64, amount float64) error {
	if _, err := s.db.ExecContext(ctx, updateBalanceQuery, cardID, amount); err != nil {
		return fmt.Errorf("updating balance for card %d: %w", cardID, err)
	}
	return nil
}
