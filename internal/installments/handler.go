package installments

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cardgate/internal/transport/httputil"
	dErrors "cardgate/pkg/domainerrors"
)

// Handler serves installment quotes. The endpoint is open: it computes over
// caller-provided numbers and touches no tenant data.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/calcular_cuotas", h.HandleQuoteQuery)
	r.Post("/calcular_cuotas", h.HandleQuoteBody)
}

// HandleQuoteQuery implements GET /calcular_cuotas?monto=&tasa_interes_mensual=&cuotas=.
func (h *Handler) HandleQuoteQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	amount, err := strconv.ParseFloat(q.Get("monto"), 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "monto must be a number"))
		return
	}
	rate, err := strconv.ParseFloat(q.Get("tasa_interes_mensual"), 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tasa_interes_mensual must be a number"))
		return
	}
	count, err := strconv.Atoi(q.Get("cuotas"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "cuotas must be an integer"))
		return
	}

	h.respond(w, r, QuoteRequest{Amount: amount, MonthlyRate: rate, Count: count})
}

// HandleQuoteBody implements POST /calcular_cuotas with a JSON body.
func (h *Handler) HandleQuoteBody(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}
	h.respond(w, r, req)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, req QuoteRequest) {
	quote, err := Calculate(req)
	if err != nil {
		h.logger.WarnContext(r.Context(), "installment quote rejected", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, quote)
}
