package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/iwvelando/option-calculator/pkg/constants"
)

func TestAdapt(t *testing.T) {
	adapter := NewAdapter("fallback")
	result := &Result{OptionType: "Call", OptionPrice: 12.3456}

	tests := []struct {
		name       string
		result     *Result
		err        error
		wantResult bool
		wantError  string
		wantSource Source
	}{
		{
			name:       "Success passes the result through",
			result:     result,
			wantResult: true,
			wantSource: SourceNone,
		},
		{
			name:       "Detail string is surfaced verbatim",
			err:        &ServiceError{StatusCode: 400, Detail: "bad spot price", HasDetail: true},
			wantError:  "bad spot price",
			wantSource: SourceDetail,
		},
		{
			name:       "Wrapped service error still yields detail",
			err:        fmt.Errorf("submit: %w", &ServiceError{StatusCode: 400, Detail: "bad spot price", HasDetail: true}),
			wantError:  "bad spot price",
			wantSource: SourceDetail,
		},
		{
			name:       "Service error without detail falls back",
			err:        &ServiceError{StatusCode: 500},
			wantError:  "fallback",
			wantSource: SourceFallback,
		},
		{
			name:       "Unreachable service falls back",
			err:        &TransportError{Err: errors.New("connection refused")},
			wantError:  "fallback",
			wantSource: SourceFallback,
		},
		{
			name:       "Cancelled call falls back",
			err:        &TransportError{Err: context.Canceled},
			wantError:  "fallback",
			wantSource: SourceFallback,
		},
		{
			name:       "Unknown error falls back",
			err:        errors.New("boom"),
			wantError:  "fallback",
			wantSource: SourceFallback,
		},
		{
			name:       "No result and no error falls back",
			wantError:  "fallback",
			wantSource: SourceFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := adapter.Adapt(tt.result, tt.err)

			if outcome.OK() != tt.wantResult {
				t.Fatalf("OK() = %v, expected %v", outcome.OK(), tt.wantResult)
			}
			if tt.wantResult {
				if outcome.Result != tt.result {
					t.Errorf("expected result to be passed through unchanged")
				}
				if outcome.Result.OptionPrice != 12.3456 {
					t.Errorf("price was altered: %v", outcome.Result.OptionPrice)
				}
				if outcome.Error != "" {
					t.Errorf("expected no error alongside a result, got %q", outcome.Error)
				}
			}
			if outcome.Error != tt.wantError {
				t.Errorf("Error = %q, expected %q", outcome.Error, tt.wantError)
			}
			if outcome.Source != tt.wantSource {
				t.Errorf("Source = %s, expected %s", outcome.Source, tt.wantSource)
			}
		})
	}
}

func TestNewAdapterDefaultFallback(t *testing.T) {
	adapter := NewAdapter("")
	outcome := adapter.Adapt(nil, &TransportError{Err: errors.New("dial tcp: refused")})
	if outcome.Error != constants.DefaultFallbackMessage {
		t.Errorf("Error = %q, expected default fallback", outcome.Error)
	}

	var zero Adapter
	if msg, _ := zero.Message(errors.New("x")); msg != constants.DefaultFallbackMessage {
		t.Errorf("zero Adapter message = %q, expected default fallback", msg)
	}
}

func TestDecodeDetail(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
		ok     bool
	}{
		{"String detail", `{"detail":"bad spot price"}`, "bad spot price", true},
		{"Empty body", ``, "", false},
		{"Not JSON", `<html>Bad Gateway</html>`, "", false},
		{"No detail key", `{"error":"x"}`, "", false},
		{"List detail", `{"detail":[{"loc":["body","spot_price"],"msg":"must be > 0"}]}`, "", false},
		{"Numeric detail", `{"detail":42}`, "", false},
		{"Blank detail", `{"detail":"  "}`, "", false},
		{"Null detail", `{"detail":null}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail, ok := decodeDetail([]byte(tt.body))
			if ok != tt.ok || detail != tt.detail {
				t.Errorf("decodeDetail(%s) = (%q, %v), expected (%q, %v)", tt.body, detail, ok, tt.detail, tt.ok)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	cause := errors.New("connection refused")
	transport := &TransportError{Err: cause}
	if !errors.Is(transport, cause) {
		t.Error("TransportError does not unwrap to its cause")
	}
	if transport.Error() == "" {
		t.Error("empty TransportError message")
	}

	withDetail := &ServiceError{StatusCode: 400, Detail: "bad", HasDetail: true}
	if withDetail.Error() != "pricing service returned 400: bad" {
		t.Errorf("unexpected message %q", withDetail.Error())
	}
	bare := &ServiceError{StatusCode: 502}
	if bare.Error() != "pricing service returned 502" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}
