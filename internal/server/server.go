package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/iwvelando/option-calculator/internal/form"
	"github.com/iwvelando/option-calculator/internal/pricing"
	"github.com/iwvelando/option-calculator/pkg/constants"
	"github.com/iwvelando/option-calculator/pkg/format"
	"github.com/iwvelando/option-calculator/pkg/timeunit"
	"github.com/iwvelando/option-calculator/pkg/validation"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed static/*
var staticFiles embed.FS

// Options tunes the handler returned by NewHandler.
type Options struct {
	MaxBodySize    int64
	Version        string
	CurrencySymbol string
	Fallback       string
	DefaultUnit    timeunit.Unit
}

type handler struct {
	logger  *zap.Logger
	pricer  form.Pricer
	adapter pricing.Adapter
	opts    Options
}

// NewHandler constructs the HTTP handler that serves the web UI and the form API.
func NewHandler(logger *zap.Logger, pricer form.Pricer, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}
	opts.Version = strings.TrimSpace(opts.Version)
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if !opts.DefaultUnit.Valid() {
		opts.DefaultUnit = timeunit.Year
	}

	h := &handler{
		logger:  logger,
		pricer:  pricer,
		adapter: pricing.NewAdapter(opts.Fallback),
		opts:    opts,
	}

	mux := http.NewServeMux()

	// Single-field validation for inline error display
	mux.HandleFunc("/api/form/validate", h.handleValidate)

	// Time unit choices for the maturity selector
	mux.HandleFunc("/api/units", h.handleUnits)

	// Full form submission
	mux.HandleFunc("/api/quote", h.handleQuote)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))

	return mux
}

type validateRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type validateResponse struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (h *handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleValidate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var body validateRequest
	if !h.decode(w, r, &body, op) {
		return
	}

	field, err := validation.ParseField(body.Field)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, validateResponse{
		Field: string(field),
		Error: validation.Message(field, body.Value),
	})
}

type unitResponse struct {
	Tag     string  `json:"tag"`
	Label   string  `json:"label"`
	Divisor float64 `json:"divisor"`
	Default bool    `json:"default,omitempty"`
}

func (h *handler) handleUnits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	units := timeunit.Units()
	resp := make([]unitResponse, 0, len(units))
	for _, u := range units {
		resp = append(resp, unitResponse{
			Tag:     u.String(),
			Label:   u.Label(),
			Divisor: u.Divisor(),
			Default: u == h.opts.DefaultUnit,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type quoteRequest struct {
	IsCall *bool             `json:"is_call"`
	Unit   string            `json:"unit"`
	Values map[string]string `json:"values"`
}

type quoteResponse struct {
	Request pricing.Request `json:"request"`
	Result  pricing.Result  `json:"result"`
	Display string          `json:"display"`
}

type fieldErrorsResponse struct {
	FieldErrors map[validation.Field]string `json:"fieldErrors"`
}

func (h *handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleQuote"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var body quoteRequest
	if !h.decode(w, r, &body, op) {
		return
	}

	unit := h.opts.DefaultUnit
	if strings.TrimSpace(body.Unit) != "" {
		parsed, err := timeunit.ParseUnit(body.Unit)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		unit = parsed
	}

	controller := form.NewController(h.pricer, h.adapter, h.logger)
	defer controller.Close()

	for name, value := range body.Values {
		field, err := validation.ParseField(name)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		controller.Edit(field, value)
	}
	controller.SetUnit(unit)
	if body.IsCall != nil {
		controller.SetOptionType(*body.IsCall)
	}

	state, err := controller.Submit(r.Context())
	switch {
	case err == nil:
		// The per-request form is not edited after Submit, so this rebuilds
		// exactly what was sent.
		req, buildErr := pricing.Build(state.Input, state.Unit)
		if buildErr != nil {
			h.respondError(w, http.StatusInternalServerError, h.adapter.Fallback, op)
			return
		}
		h.writeJSON(w, http.StatusOK, quoteResponse{
			Request: req,
			Result:  *state.Result,
			Display: format.Price(h.opts.CurrencySymbol, state.Result.OptionPrice),
		})
	case errors.Is(err, form.ErrInvalidForm):
		h.writeJSON(w, http.StatusUnprocessableEntity, fieldErrorsResponse{FieldErrors: state.FieldErrors()})
	case errors.Is(err, pricing.ErrUnvalidatedInput):
		h.respondError(w, http.StatusInternalServerError, state.Error, op)
	default:
		h.respondError(w, http.StatusBadGateway, state.Error, op)
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.opts.Version,
	})
}

// decode reads a size-capped JSON body into dst, answering the request itself
// on failure.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.opts.MaxBodySize), op)
			return false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read request body: %v", err), op)
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Warn("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
