// Package testutil provides common utility functions for testing.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/iwvelando/option-calculator/internal/pricing"
	"github.com/iwvelando/option-calculator/pkg/validation"
)

// ValidValues returns raw form values that pass validation:
// spot 100.00, strike 95.00, one unit of time, 5% rate, 20% volatility, 0% yield.
func ValidValues() map[validation.Field]string {
	return map[validation.Field]string{
		validation.SpotPrice:        "100.00",
		validation.StrikePrice:      "95.00",
		validation.TimeToMaturity:   "1",
		validation.RiskFreeInterest: "5",
		validation.Volatility:       "20",
		validation.DividendYield:    "0",
	}
}

// ValidInput returns a call-option input built from ValidValues.
func ValidInput() pricing.Input {
	return pricing.Input{IsCall: true, Values: ValidValues()}
}

// Reply is what the fake pricing service sends back.
type Reply struct {
	Status      int
	ContentType string
	Body        string
}

// Handler decides the reply for a decoded pricing request.
type Handler func(req pricing.Request) Reply

// RespondResult replies 200 with the given result.
func RespondResult(result pricing.Result) Handler {
	return func(pricing.Request) Reply {
		data, _ := json.Marshal(result)
		return Reply{Status: http.StatusOK, ContentType: "application/json", Body: string(data)}
	}
}

// RespondDetail replies with status and a {"detail": detail} body.
func RespondDetail(status int, detail string) Handler {
	return func(pricing.Request) Reply {
		data, _ := json.Marshal(map[string]string{"detail": detail})
		return Reply{Status: status, ContentType: "application/json", Body: string(data)}
	}
}

// RespondRaw replies with status and an arbitrary body.
func RespondRaw(status int, contentType, body string) Handler {
	return func(pricing.Request) Reply {
		return Reply{Status: status, ContentType: contentType, Body: body}
	}
}

// PricingService is a fake pricing service that records what it receives.
type PricingService struct {
	*httptest.Server

	mu       sync.Mutex
	handler  Handler
	requests []pricing.Request
	headers  []http.Header
	release  chan struct{}
}

// NewPricingService starts a fake pricing service answering on /api/price.
// The server is closed when the test ends.
func NewPricingService(t testing.TB, handler Handler) *PricingService {
	t.Helper()

	svc := &PricingService{handler: handler}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/price", svc.serve)
	svc.Server = httptest.NewServer(mux)
	t.Cleanup(svc.Server.Close)
	return svc
}

// SetHandler swaps the reply policy for subsequent requests.
func (s *PricingService) SetHandler(handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// Hold makes subsequent requests block until the returned function is
// called. Held requests are released before the server shuts down.
func (s *PricingService) Hold(t testing.TB) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.release = ch
	s.mu.Unlock()

	var once sync.Once
	release = func() {
		once.Do(func() { close(ch) })
	}
	t.Cleanup(release)
	return release
}

// Received returns how many requests have been decoded so far.
func (s *PricingService) Received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns the decoded requests received so far.
func (s *PricingService) Requests() []pricing.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pricing.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Headers returns the request headers received so far.
func (s *PricingService) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]http.Header, len(s.headers))
	copy(out, s.headers)
	return out
}

func (s *PricingService) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req pricing.Request
	if err := json.Unmarshal(data, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.headers = append(s.headers, r.Header.Clone())
	handler := s.handler
	release := s.release
	s.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
	}

	reply := handler(req)
	if reply.ContentType != "" {
		w.Header().Set("Content-Type", reply.ContentType)
	}
	w.WriteHeader(reply.Status)
	_, _ = io.WriteString(w, reply.Body)
}

// UnreachableURL returns the address of a server that has already been shut
// down, so connections to it are refused.
func UnreachableURL(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}
