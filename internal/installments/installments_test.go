package installments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cardgate/pkg/domainerrors"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name      string
		req       QuoteRequest
		wantPer   float64
		wantTotal float64
	}{
		{
			name:      "twelve installments at five percent",
			req:       QuoteRequest{Amount: 1000, MonthlyRate: 5, Count: 12},
			wantPer:   112.83,
			wantTotal: 1353.96,
		},
		{
			name:      "six installments at four and a half percent",
			req:       QuoteRequest{Amount: 50000, MonthlyRate: 4.5, Count: 6},
			wantPer:   9693.92,
			wantTotal: 58163.52,
		},
		{
			// Zero rate splits the capital evenly without rounding the
			// per-installment amount, so the total adds back to the capital.
			name:      "zero rate",
			req:       QuoteRequest{Amount: 1000, MonthlyRate: 0, Count: 3},
			wantPer:   1000.0 / 3,
			wantTotal: 1000,
		},
		{
			name:      "single installment",
			req:       QuoteRequest{Amount: 1, MonthlyRate: 0, Count: 1},
			wantPer:   1,
			wantTotal: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := Calculate(tt.req)
			require.NoError(t, err)
			require.Len(t, quote.Installments, tt.req.Count)
			for i, inst := range quote.Installments {
				assert.Equal(t, i+1, inst.Number)
				assert.InDelta(t, tt.wantPer, inst.Amount, 0.001)
			}
			assert.InDelta(t, tt.wantTotal, quote.Total, 0.001)
		})
	}
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	for _, req := range []QuoteRequest{
		{Amount: 0, MonthlyRate: 5, Count: 12},
		{Amount: -10, MonthlyRate: 5, Count: 12},
		{Amount: 1000, MonthlyRate: 5, Count: 0},
		{Amount: 1000, MonthlyRate: 5, Count: -1},
		{Amount: 1000, MonthlyRate: -5, Count: 12},
	} {
		_, err := Calculate(req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	}
}

func newTestRouter() *chi.Mux {
	r := chi.NewRouter()
	NewHandler(nil).Register(r)
	return r
}

func TestHandleQuoteQuery(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/calcular_cuotas?monto=1000&tasa_interes_mensual=5&cuotas=12", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var quote Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	require.Len(t, quote.Installments, 12)
	assert.InDelta(t, 112.83, quote.Installments[0].Amount, 0.001)
	assert.InDelta(t, 1353.96, quote.Total, 0.001)
}

func TestHandleQuoteQueryBadParams(t *testing.T) {
	router := newTestRouter()
	for _, target := range []string{
		"/calcular_cuotas",
		"/calcular_cuotas?monto=abc&tasa_interes_mensual=5&cuotas=12",
		"/calcular_cuotas?monto=1000&tasa_interes_mensual=x&cuotas=12",
		"/calcular_cuotas?monto=1000&tasa_interes_mensual=5&cuotas=1.5",
		"/calcular_cuotas?monto=1000&tasa_interes_mensual=5&cuotas=0",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandleQuoteBody(t *testing.T) {
	router := newTestRouter()

	body := `{"monto": 1000, "tasa_interes_mensual": 0, "cuotas": 3}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/calcular_cuotas",
		strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var quote Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.InDelta(t, 1000.0/3, quote.Installments[0].Amount, 0.0001)
	assert.InDelta(t, 1000, quote.Total, 0.0001)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/calcular_cuotas",
		strings.NewReader("{broken")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
