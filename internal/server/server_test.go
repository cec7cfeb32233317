package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/option-calculator/internal/config"
	"github.com/iwvelando/option-calculator/internal/pricing"
	"github.com/iwvelando/option-calculator/pkg/constants"
	"github.com/iwvelando/option-calculator/pkg/testutil"
	"github.com/iwvelando/option-calculator/pkg/timeunit"
	"github.com/iwvelando/option-calculator/pkg/validation"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, endpoint string) http.Handler {
	t.Helper()
	client := pricing.NewClient(config.PricingConfig{
		Endpoint: endpoint,
		Path:     constants.DefaultPricingPath,
		Timeout:  5 * time.Second,
	}, zap.NewNop())
	return NewHandler(zap.NewNop(), client, Options{
		Version:        "1.2.3",
		CurrencySymbol: "¥",
		Fallback:       "fallback",
		DefaultUnit:    timeunit.Year,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const validQuote = `{"is_call":true,"unit":"month","values":{
	"spot_price":"100.00","strike_price":"95","time_to_maturity":"6",
	"risk_free_interest":"5","volatility":"20","q":"1.5"}}`

func TestHandleQuoteSuccess(t *testing.T) {
	svc := testutil.NewPricingService(t, testutil.RespondResult(pricing.Result{OptionType: "Call", OptionPrice: 12.3456}))
	handler := newTestHandler(t, svc.URL)

	rr := doJSON(t, handler, http.MethodPost, "/api/quote", validQuote)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp quoteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Display != "¥12.35" {
		t.Errorf("expected display ¥12.35, got %q", resp.Display)
	}
	if resp.Result.OptionPrice != 12.3456 || resp.Result.OptionType != "Call" {
		t.Errorf("unexpected result %+v", resp.Result)
	}

	requests := svc.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected one pricing call, got %d", len(requests))
	}
	sent := requests[0]
	if sent.TimeToMaturity != 0.5 || sent.Q != 0.015 || sent.RiskFreeRate != 0.05 {
		t.Errorf("unexpected request sent to pricing service %+v", sent)
	}
	if resp.Request != sent {
		t.Errorf("response request %+v differs from sent %+v", resp.Request, sent)
	}
}

func TestHandleQuoteDefaultsToCallAndDefaultUnit(t *testing.T) {
	svc := testutil.NewPricingService(t, testutil.RespondResult(pricing.Result{OptionType: "Call", OptionPrice: 1}))
	handler := newTestHandler(t, svc.URL)

	body := `{"values":{"spot_price":"100","strike_price":"95","time_to_maturity":"2",
		"risk_free_interest":"5","volatility":"20","q":"0"}}`
	rr := doJSON(t, handler, http.MethodPost, "/api/quote", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	sent := svc.Requests()[0]
	if !sent.IsCall || sent.TimeToMaturity != 2 {
		t.Errorf("expected call with 2 years, got %+v", sent)
	}
}

func TestHandleQuoteInvalidFields(t *testing.T) {
	svc := testutil.NewPricingService(t, testutil.RespondResult(pricing.Result{OptionType: "Call", OptionPrice: 1}))
	handler := newTestHandler(t, svc.URL)

	body := `{"is_call":false,"values":{"spot_price":"12.345","time_to_maturity":"1.5"}}`
	rr := doJSON(t, handler, http.MethodPost, "/api/quote", body)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		FieldErrors map[string]string `json:"fieldErrors"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, field := range []string{"spot_price", "strike_price", "time_to_maturity", "risk_free_interest", "volatility", "q"} {
		if resp.FieldErrors[field] == "" {
			t.Errorf("expected an error for %s, got %v", field, resp.FieldErrors)
		}
	}
	if svc.Received() != 0 {
		t.Errorf("pricing service called for invalid input")
	}
}

func TestHandleQuoteServiceErrors(t *testing.T) {
	tests := []struct {
		name      string
		respond   testutil.Handler
		wantError string
	}{
		{
			name:      "Detail surfaced",
			respond:   testutil.RespondDetail(http.StatusBadRequest, "volatility must be positive"),
			wantError: "volatility must be positive",
		},
		{
			name:      "No detail uses fallback",
			respond:   testutil.RespondRaw(http.StatusInternalServerError, "text/plain", "boom"),
			wantError: "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewPricingService(t, tt.respond)
			handler := newTestHandler(t, svc.URL)

			rr := doJSON(t, handler, http.MethodPost, "/api/quote", validQuote)
			if rr.Code != http.StatusBadGateway {
				t.Fatalf("expected status 502, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["error"] != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, resp["error"])
			}
		})
	}
}

type emptyPricer struct{}

func (emptyPricer) Price(context.Context, pricing.Request) (*pricing.Result, error) {
	return nil, nil
}

func TestHandleQuoteEmptyPricerAnswer(t *testing.T) {
	handler := NewHandler(zap.NewNop(), emptyPricer{}, Options{Fallback: "fallback"})

	rr := doJSON(t, handler, http.MethodPost, "/api/quote", validQuote)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "fallback") {
		t.Errorf("expected fallback message, got %s", rr.Body.String())
	}
}

func TestHandleQuoteUnreachableService(t *testing.T) {
	handler := newTestHandler(t, testutil.UnreachableURL(t))

	rr := doJSON(t, handler, http.MethodPost, "/api/quote", validQuote)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "fallback") {
		t.Errorf("expected fallback message, got %s", rr.Body.String())
	}
}

func TestHandleQuoteBadRequests(t *testing.T) {
	handler := newTestHandler(t, testutil.UnreachableURL(t))

	tests := []struct {
		name string
		body string
	}{
		{name: "Malformed JSON", body: `{"values":`},
		{name: "Unknown unit", body: `{"unit":"week","values":{}}`},
		{name: "Unknown field", body: `{"values":{"gamma":"1"}}`},
		{name: "Unknown top-level key", body: `{"strike":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, handler, http.MethodPost, "/api/quote", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleQuoteBodyTooLarge(t *testing.T) {
	client := pricing.NewClient(config.PricingConfig{
		Endpoint: testutil.UnreachableURL(t),
		Path:     constants.DefaultPricingPath,
		Timeout:  time.Second,
	}, zap.NewNop())
	handler := NewHandler(zap.NewNop(), client, Options{MaxBodySize: 32})

	body := `{"values":{"spot_price":"` + strings.Repeat("1", 64) + `"}}`
	rr := doJSON(t, handler, http.MethodPost, "/api/quote", body)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleValidate(t *testing.T) {
	handler := newTestHandler(t, testutil.UnreachableURL(t))

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
	}{
		{name: "Valid currency", body: `{"field":"spot_price","value":"10.5"}`, wantCode: http.StatusOK},
		{name: "Too many decimals", body: `{"field":"strike_price","value":"1.234"}`, wantCode: http.StatusOK, wantError: validation.ErrTooManyDecimals.Error()},
		{name: "Empty is required", body: `{"field":"q","value":""}`, wantCode: http.StatusOK, wantError: validation.ErrRequired.Error()},
		{name: "Unknown field", body: `{"field":"gamma","value":"1"}`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, handler, http.MethodPost, "/api/form/validate", tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp validateResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if tt.wantError == "" && resp.Error != "" {
				t.Errorf("expected no error, got %q", resp.Error)
			}
			if tt.wantError != "" && !strings.Contains(resp.Error, tt.wantError) {
				t.Errorf("expected error containing %q, got %q", tt.wantError, resp.Error)
			}
		})
	}
}

func TestHandleUnits(t *testing.T) {
	handler := newTestHandler(t, testutil.UnreachableURL(t))

	rr := doJSON(t, handler, http.MethodGet, "/api/units", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var units []unitResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &units); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	divisors := map[string]float64{"year": 1, "month": 12, "day": 252}
	for _, u := range units {
		if divisors[u.Tag] != u.Divisor {
			t.Errorf("unit %s has divisor %v", u.Tag, u.Divisor)
		}
		if u.Default != (u.Tag == "year") {
			t.Errorf("unexpected default flag on %s", u.Tag)
		}
	}
}

func TestHandleVersion(t *testing.T) {
	handler := newTestHandler(t, testutil.UnreachableURL(t))

	rr := doJSON(t, handler, http.MethodGet, "/api/version", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"version":"1.2.3"`) {
		t.Errorf("unexpected version body %s", rr.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, testutil.UnreachableURL(t))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/quote"},
		{http.MethodGet, "/api/form/validate"},
		{http.MethodPost, "/api/units"},
		{http.MethodPost, "/api/version"},
	} {
		rr := doJSON(t, handler, tc.method, tc.path, "")
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tc.method, tc.path, rr.Code)
		}
	}
}

func TestStaticIndex(t *testing.T) {
	handler := newTestHandler(t, testutil.UnreachableURL(t))

	req := httptest.NewRequest(http.MethodGet, "/", &bytes.Buffer{})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Option Calculator") {
		t.Errorf("index page not served")
	}
}
