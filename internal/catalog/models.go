package catalog

import "time"

// State is one card state row (tjEstados).
type State struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// Plan is one payment plan row (tjPlanes). JSON names keep the wire contract
// of the previous system.
type Plan struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nombre"`
	Installments int       `json:"cuotas"`
	Interest     float64   `json:"interes"`
	FinanceCost  float64   `json:"costofin"`
	Expiry       time.Time `json:"vencimiento"`
	Active       bool      `json:"activo"`
}

// MerchantPlan is a plan as offered by one merchant; expiry and active flag
// are already filtered out by the query.
type MerchantPlan struct {
	ID           int64   `json:"id"`
	Name         string  `json:"nombre"`
	Installments int     `json:"cuotas"`
	Interest     float64 `json:"interes"`
	FinanceCost  float64 `json:"costofin"`
}

// CardPurchase is one row of the recent-purchases listing for a card.
type CardPurchase struct {
	Date       time.Time `json:"fecha"`
	Coupon     int64     `json:"cupon"`
	MerchantID int64     `json:"idcomercio"`
	Merchant   string    `json:"comercio"`
	Amount     float64   `json:"importe"`
	PlanID     int64     `json:"idplan"`
	ID         int64     `json:"id"`
}

// PurchaseInstallment is one installment of a recorded purchase.
type PurchaseInstallment struct {
	Number     int       `json:"cuota"`
	DueDate    time.Time `json:"vencimiento"`
	Amount     float64   `json:"importe"`
	Settlement int64     `json:"liquidacion"`
}

// Merchant is one merchant row (tjComercios).
type Merchant struct {
	ID       int64  `json:"id"`
	PIN      int64  `json:"pin"`
	Code     string `json:"comercio"`
	Name     string `json:"nombre"`
	Address  string `json:"domicilio"`
	City     string `json:"localidad"`
	Province string `json:"provincia"`
	Email    string `json:"mail"`
	Branch   int64  `json:"sucursal"`
	MemberID int64  `json:"socio"`
	CUIT     int64  `json:"cuit"`
}

// MerchantRegister is one point-of-sale register of a merchant
// (tjCajaComercios).
type MerchantRegister struct {
	ID         int64     `json:"idCaja"`
	MerchantID int64     `json:"idComercio"`
	Name       string    `json:"nombre_caja"`
	CreatedAt  time.Time `json:"fecha_creacion"`
}

// Card is one card row (tjTarjetas).
type Card struct {
	ID         int64      `json:"id"`
	Branch     int64      `json:"sucursal"`
	MemberID   int64      `json:"socio"`
	Additional *int64     `json:"adicional"`
	CheckDigit int64      `json:"verificador"`
	Name       string     `json:"nombre"`
	Address    string     `json:"domicilio"`
	City       string     `json:"localidad"`
	Province   string     `json:"provincia"`
	Email      string     `json:"mail"`
	Limit      float64    `json:"tope"`
	Balance    float64    `json:"saldo"`
	StateID    int64      `json:"estado"`
	CanceledAt *time.Time `json:"baja"`
	Expiry     time.Time  `json:"vencimiento"`
}

// UserAccount is the identity row exposed by the user lookup. Field names
// keep the AspNetUsers wire contract; the stored password hash and security
// stamp never leave the server.
type UserAccount struct {
	ID                   string     `json:"Id"`
	Email                *string    `json:"Email"`
	EmailConfirmed       bool       `json:"EmailConfirmed"`
	PhoneNumber          *string    `json:"PhoneNumber"`
	PhoneNumberConfirmed bool       `json:"PhoneNumberConfirmed"`
	TwoFactorEnabled     bool       `json:"TwoFactorEnabled"`
	LockoutEnd           *time.Time `json:"LockoutEndDateUtc"`
	LockoutEnabled       bool       `json:"LockoutEnabled"`
	AccessFailedCount    int        `json:"AccessFailedCount"`
	UserName             string     `json:"UserName"`
}

// UserCardMerchant links an identity to its member, card and merchant rows
// (vwSociosTarjetasYComercios).
type UserCardMerchant struct {
	MemberID   int64   `json:"SocioId"`
	CardID     *int64  `json:"TarjetaId"`
	Holder     *string `json:"Titular"`
	MerchantID *int64  `json:"ComercioId"`
	Merchant   *string `json:"Comercio"`
	UserID     string  `json:"AspNetUserId"`
}
