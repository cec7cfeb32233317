package pricing

import (
	"fmt"
	"strings"
)

// TransportError means the pricing service could not be reached or the
// exchange failed before a response arrived.
type TransportError struct {
	RequestID string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pricing service unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError means the pricing service answered, but not with a usable
// price. Detail carries the service's own message when it sent one.
type ServiceError struct {
	RequestID  string
	StatusCode int
	Detail     string
	HasDetail  bool
	Body       []byte
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.HasDetail:
		return fmt.Sprintf("pricing service returned %d: %s", e.StatusCode, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("pricing service returned %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("pricing service returned %d", e.StatusCode)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// errorBody is the service's error shape. detail is usually a string but
// validation failures send a list, so it is decoded loosely.
type errorBody struct {
	Detail interface{} `json:"detail"`
}

// decodeDetail extracts a non-empty detail string from an error body.
func decodeDetail(body []byte) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	detail, ok := payload.Detail.(string)
	if !ok || strings.TrimSpace(detail) == "" {
		return "", false
	}
	return detail, true
}
