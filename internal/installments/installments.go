package installments

import (
	"math"

	dErrors "cardgate/pkg/domainerrors"
)

// QuoteRequest carries the purchase parameters. Field names keep the wire
// contract of the previous system.
type QuoteRequest struct {
	Amount      float64 `json:"monto"`
	MonthlyRate float64 `json:"tasa_interes_mensual"`
	Count       int     `json:"cuotas"`
}

// Installment is one row of the payment schedule.
type Installment struct {
	Number int     `json:"numero_cuota"`
	Amount float64 `json:"monto_cuota"`
}

// Quote is the full schedule plus the financed total.
type Quote struct {
	Installments []Installment `json:"cuotas"`
	Total        float64       `json:"total_compra"`
}

// Calculate builds a French amortization schedule: every installment pays the
// same amount, covering interest on the outstanding balance plus capital. The
// rate is a monthly percentage (e.g. 5 means 5% per month).
func Calculate(req QuoteRequest) (*Quote, error) {
	if req.Amount <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "monto must be greater than zero")
	}
	if req.Count < 1 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cuotas must be at least 1")
	}
	if req.MonthlyRate < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tasa_interes_mensual cannot be negative")
	}

	rate := req.MonthlyRate / 100
	n := float64(req.Count)

	var perInstallment float64
	if rate == 0 {
		// Zero-rate installments stay unrounded so the total adds back
		// to the exact purchase amount.
		perInstallment = req.Amount / n
	} else {
		factor := math.Pow(1+rate, n)
		perInstallment = roundCents(req.Amount * rate * factor / (factor - 1))
	}

	schedule := make([]Installment, req.Count)
	for i := range schedule {
		schedule[i] = Installment{Number: i + 1, Amount: perInstallment}
	}

	return &Quote{
		Installments: schedule,
		Total:        roundCents(perInstallment * n),
	}, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
