package purchase

import "time"

// Purchase is one card purchase to record. JSON names keep the wire contract
// of the previous system.
type Purchase struct {
	MerchantID int64     `json:"idcomercio"`
	CardID     int64     `json:"idtarjeta"`
	Amount     float64   `json:"importe"`
	PlanID     int64     `json:"idplan"`
	Charge     string    `json:"carga,omitempty"`
	Date       time.Time `json:"fecha"`
	RegisterID int64     `json:"idcaja"`
}

// BalanceUpdate adjusts one card's balance by the purchase amount.
type BalanceUpdate struct {
	CardID int64   `json:"id"`
	Amount float64 `json:"importe"`
}

// Receipt is the outcome of a recorded purchase.
type Receipt struct {
	Message           string `json:"message"`
	Coupon            int64  `json:"cupon"`
	AuthorizationCode string `json:"codigo_autorizacion"`
}
