package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cardgate/internal/sentinel"
)

// Store reads catalog tables from one tenant database.
type Store interface {
	States(ctx context.Context) ([]State, error)
	StateByID(ctx context.Context, id int64) (*State, error)
	Plans(ctx context.Context) ([]Plan, error)
	PlanByID(ctx context.Context, id int64) (*Plan, error)
	PlansByMerchant(ctx context.Context, merchantID int64) ([]MerchantPlan, error)
	RecentPurchases(ctx context.Context, cardID int64) ([]CardPurchase, error)
	PurchaseInstallments(ctx context.Context, purchaseID int64) ([]PurchaseInstallment, error)
	MerchantByID(ctx context.Context, id int64) (*Merchant, error)
	MerchantRegisters(ctx context.Context, merchantID int64) ([]MerchantRegister, error)
	CardByID(ctx context.Context, id int64) (*Card, error)
	UserByName(ctx context.Context, userName string) (*UserAccount, error)
	UserCardMerchant(ctx context.Context, userID string) (*UserCardMerchant, error)
}

const (
	statesQuery = `SELECT id, nombre FROM "tjEstados" ORDER BY id`
	stateQuery  = `SELECT id, nombre FROM "tjEstados" WHERE id = $1`

	plansQuery = `SELECT id, nombre, cuotas, interes, costofin, vencimiento, activo
		FROM "tjPlanes" ORDER BY id`
	planQuery = `SELECT id, nombre, cuotas, interes, costofin, vencimiento, activo
		FROM "tjPlanes" WHERE id = $1`

	merchantPlansQuery = `SELECT p.id, p.nombre, p.cuotas, p.interes, p.costofin
		FROM "tjPlanes" p
		WHERE p.id IN (SELECT "idPlan" FROM "tjPlanComercio" WHERE "idComercio" = $1)
		  AND p.activo AND p.vencimiento >= $2
		ORDER BY p.id`

	recentPurchasesQuery = `SELECT fecha, cupon, idcomercio, comercio, importe, idplan, id
		FROM ult_compras_socios($1)`
	purchaseInstallmentsQuery = `SELECT cuota, vencimiento, importe, liquidacion
		FROM detalle_cuotas($1)`

	merchantQuery = `SELECT id, pin, comercio, nombre, domicilio, localidad, provincia,
			mail, sucursal, socio, cuit
		FROM "tjComercios" WHERE id = $1`
	merchantRegistersQuery = `SELECT "idCaja", "idComercio", nombre_caja, fecha_creacion
		FROM "tjCajaComercios" WHERE "idComercio" = $1 ORDER BY "idCaja"`
	cardQuery = `SELECT id, sucursal, socio, adicional, verificador, nombre, domicilio,
			localidad, provincia, mail, tope, saldo, estado, baja, vencimiento
		FROM "tjTarjetas" WHERE id = $1`

	userQuery = `SELECT "Id", "Email", "EmailConfirmed", "PhoneNumber", "PhoneNumberConfirmed",
			"TwoFactorEnabled", "LockoutEndDateUtc", "LockoutEnabled", "AccessFailedCount", "UserName"
		FROM "AspNetUsers" WHERE "UserName" = $1`
	userCardMerchantQuery = `SELECT "SocioId", "TarjetaId", "Titular", "ComercioId", "Comercio", "AspNetUserId"
		FROM "vwSociosTarjetasYComercios" WHERE "AspNetUserId" = $1`
)

// SQLStore implements Store over a tenant database handle owned by the caller.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) States(ctx context.Context) ([]State, error) {
	rows, err := s.db.QueryContext(ctx, statesQuery)
	if err != nil {
		return nil, fmt.Errorf("querying card states: %w", err)
	}
	defer rows.Close()

	states := make([]State, 0, 8)
	for rows.Next() {
		var st State
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("scanning card state: %w", err)
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

func (s *SQLStore) StateByID(ctx context.Context, id int64) (*State, error) {
	var st State
	err := s.db.QueryRowContext(ctx, stateQuery, id).Scan(&st.ID, &st.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying card state %d: %w", id, err)
	}
	return &st, nil
}

func (s *SQLStore) Plans(ctx context.Context) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx, plansQuery)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	plans := make([]Plan, 0, 8)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (s *SQLStore) PlanByID(ctx context.Context, id int64) (*Plan, error) {
	row := s.db.QueryRowContext(ctx, planQuery, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan %d: %w", id, err)
	}
	return p, nil
}

func (s *SQLStore) PlansByMerchant(ctx context.Context, merchantID int64) ([]MerchantPlan, error) {
	rows, err := s.db.QueryContext(ctx, merchantPlansQuery, merchantID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("querying plans for merchant %d: %w", merchantID, err)
	}
	defer rows.Close()

	plans := make([]MerchantPlan, 0, 8)
	for rows.Next() {
		var p MerchantPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.Installments, &p.Interest, &p.FinanceCost); err != nil {
			return nil, fmt.Errorf("scanning merchant plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// RecentPurchases lists the last purchases charged to a card, newest first.
// The row limit lives in the database function.
func (s *SQLStore) RecentPurchases(ctx context.Context, cardID int64) ([]CardPurchase, error) {
	rows, err := s.db.QueryContext(ctx, recentPurchasesQuery, cardID)
	if err != nil {
		return nil, fmt.Errorf("querying purchases for card %d: %w", cardID, err)
	}
	defer rows.Close()

	purchases := make([]CardPurchase, 0, 5)
	for rows.Next() {
		var p CardPurchase
		if err := rows.Scan(&p.Date, &p.Coupon, &p.MerchantID, &p.Merchant,
			&p.Amount, &p.PlanID, &p.ID); err != nil {
			return nil, fmt.Errorf("scanning card purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (s *SQLStore) PurchaseInstallments(ctx context.Context, purchaseID int64) ([]PurchaseInstallment, error) {
	rows, err := s.db.QueryContext(ctx, purchaseInstallmentsQuery, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("querying installments for purchase %d: %w", purchaseID, err)
	}
	defer rows.Close()

	installments := make([]PurchaseInstallment, 0, 8)
	for rows.Next() {
		var pi PurchaseInstallment
		if err := rows.Scan(&pi.Number, &pi.DueDate, &pi.Amount, &pi.Settlement); err != nil {
			return nil, fmt.Errorf("scanning purchase installment: %w", err)
		}
		installments = append(installments, pi)
	}
	return installments, rows.Err()
}

func (s *SQLStore) MerchantByID(ctx context.Context, id int64) (*Merchant, error) {
	var m Merchant
	err := s.db.QueryRowContext(ctx, merchantQuery, id).Scan(&m.ID, &m.PIN, &m.Code,
		&m.Name, &m.Address, &m.City, &m.Province, &m.Email, &m.Branch, &m.MemberID, &m.CUIT)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying merchant %d: %w", id, err)
	}
	return &m, nil
}

func (s *SQLStore) MerchantRegisters(ctx context.Context, merchantID int64) ([]MerchantRegister, error) {
	rows, err := s.db.QueryContext(ctx, merchantRegistersQuery, merchantID)
	if err != nil {
		return nil, fmt.Errorf("querying registers for merchant %d: %w", merchantID, err)
	}
	defer rows.Close()

	registers := make([]MerchantRegister, 0, 4)
	for rows.Next() {
		var reg MerchantRegister
		if err := rows.Scan(&reg.ID, &reg.MerchantID, &reg.Name, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning merchant register: %w", err)
		}
		registers = append(registers, reg)
	}
	return registers, rows.Err()
}

func (s *SQLStore) CardByID(ctx context.Context, id int64) (*Card, error) {
	var (
		c          Card
		additional sql.NullInt64
		canceledAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, cardQuery, id).Scan(&c.ID, &c.Branch, &c.MemberID,
		&additional, &c.CheckDigit, &c.Name, &c.Address, &c.City, &c.Province, &c.Email,
		&c.Limit, &c.Balance, &c.StateID, &canceledAt, &c.Expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying card %d: %w", id, err)
	}
	if additional.Valid {
		c.Additional = &additional.Int64
	}
	if canceledAt.Valid {
		t := canceledAt.Time
		c.CanceledAt = &t
	}
	return &c, nil
}

func (s *SQLStore) UserByName(ctx context.Context, userName string) (*UserAccount, error) {
	var (
		u          UserAccount
		email      sql.NullString
		phone      sql.NullString
		lockoutEnd sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, userQuery, userName).Scan(&u.ID, &email,
		&u.EmailConfirmed, &phone, &u.PhoneNumberConfirmed, &u.TwoFactorEnabled,
		&lockoutEnd, &u.LockoutEnabled, &u.AccessFailedCount, &u.UserName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %q: %w", userName, err)
	}
	if email.Valid {
		u.Email = &email.String
	}
	if phone.Valid {
		u.PhoneNumber = &phone.String
	}
	if lockoutEnd.Valid {
		t := lockoutEnd.Time
		u.LockoutEnd = &t
	}
	return &u, nil
}

func (s *SQLStore) UserCardMerchant(ctx context.Context, userID string) (*UserCardMerchant, error) {
	var (
		link       UserCardMerchant
		cardID     sql.NullInt64
		holder     sql.NullString
		merchantID sql.NullInt64
		merchant   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, userCardMerchantQuery, userID).Scan(&link.MemberID,
		&cardID, &holder, &merchantID, &merchant, &link.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying card and merchant for user %q: %w", userID, err)
	}
	if cardID.Valid {
		link.CardID = &cardID.Int64
	}
	if holder.Valid {
		link.Holder = &holder.String
	}
	if merchantID.Valid {
		link.MerchantID = &merchantID.Int64
	}
	if merchant.Valid {
		link.Merchant = &merchant.String
	}
	return &link, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*Plan, error) {
	var p Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Installments, &p.Interest,
		&p.FinanceCost, &p.Expiry, &p.Active); err != nil {
		return nil, err
	}
	return &p, nil
}
