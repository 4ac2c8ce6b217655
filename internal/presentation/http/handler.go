package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apptransfer "github.com/Zhima-Mochi/simplepay/internal/application/transfer"
	domacc "github.com/Zhima-Mochi/simplepay/internal/domain/account"
	domtx "github.com/Zhima-Mochi/simplepay/internal/domain/transfer"
	"github.com/Zhima-Mochi/simplepay/internal/observability"
	"github.com/Zhima-Mochi/simplepay/internal/observability/logctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	transfers *apptransfer.UseCase
	log       observability.Logger
	tel       observability.Telemetry
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
)

func NewHandler(transfers *apptransfer.UseCase, logger observability.Logger, tel observability.Telemetry) *Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Handler{
		transfers: transfers,
		log:       logger.With(observability.F("component", componentHTTPHandler)),
		tel:       tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Wire each route with middlewares:
	// Trace → request logger → HTTP metrics → Access log → Handler
	h.muxHandle(mux, http.MethodPost, "/transfer", h.handleTransfer)
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Store stable route template for low-cardinality labels
		ctx := contextWithRoute(r.Context(), route)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				logctx.FromOr(ctx, h.log),
				func(r *http.Request) string {
					return r.Header.Get(headerRequestID)
				},
				h.tel,
			)(
				h.withAccessLog(http.HandlerFunc(handler)),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

type transferRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Payer     int64           `json:"payer"`
	PayerKind string          `json:"payer_kind"`
	Payee     int64           `json:"payee"`
	PayeeKind string          `json:"payee_kind"`
}

type transferResponse struct {
	TransactionID string       `json:"transaction_id,omitempty"`
	Status        domtx.Status `json:"status"`
	Message       string       `json:"message"`
	Timestamp     time.Time    `json:"timestamp"`
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payerKind, payerErr := domacc.ParseKind(req.PayerKind)
	payeeKind, payeeErr := domacc.ParseKind(req.PayeeKind)
	if payerErr != nil || payeeErr != nil {
		writeFailure(w, http.StatusBadRequest, domtx.ErrMissingKind.Error())
		return
	}

	result, err := h.transfers.Execute(r.Context(), apptransfer.TransferInput{
		Amount:    req.Amount,
		PayerID:   req.Payer,
		PayerKind: payerKind,
		PayeeID:   req.Payee,
		PayeeKind: payeeKind,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transferResponse{
		TransactionID: result.TransactionID,
		Status:        result.Status,
		Message:       domtx.NoteCompleted,
		Timestamp:     time.Now().UTC(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("simplepay.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, transferResponse{
		Status:    domtx.StatusFailed,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domtx.ErrMissingKind),
		errors.Is(err, domtx.ErrInvalidAmount):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domtx.ErrPayerNotFound),
		errors.Is(err, domtx.ErrPayeeNotFound):
		writeFailure(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domtx.ErrSellerPayer),
		errors.Is(err, domacc.ErrInsufficientBalance):
		writeFailure(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domtx.ErrAuthorizationDenied):
		writeFailure(w, http.StatusForbidden, domtx.ErrAuthorizationDenied.Error())
	default:
		// Internal detail stays out of the response.
		writeFailure(w, http.StatusInternalServerError, "internal error")
	}
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
