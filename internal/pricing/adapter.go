package pricing

import (
	"errors"

	"github.com/iwvelando/option-calculator/pkg/constants"
)

// Source records which policy produced an Outcome's error message.
type Source string

const (
	// SourceNone marks a successful outcome.
	SourceNone Source = "none"
	// SourceDetail marks a message taken from the service's detail field.
	SourceDetail Source = "detail"
	// SourceFallback marks the generic fallback message.
	SourceFallback Source = "fallback"
)

// Outcome is what the form displays after a submission: either a result or
// an error message, never both.
type Outcome struct {
	Result *Result
	Error  string
	Source Source
}

// OK reports whether the outcome carries a result.
func (o Outcome) OK() bool {
	return o.Result != nil
}

// Adapter maps pricing results and errors onto display outcomes.
type Adapter struct {
	Fallback string
}

// NewAdapter returns an Adapter using fallback as the generic message, or the
// default message when fallback is empty.
func NewAdapter(fallback string) Adapter {
	if fallback == "" {
		fallback = constants.DefaultFallbackMessage
	}
	return Adapter{Fallback: fallback}
}

// Adapt converts the outcome of a pricing call. A service error carrying a
// detail string surfaces that string; every other failure, including an
// unreachable service, surfaces the fallback message.
func (a Adapter) Adapt(result *Result, err error) Outcome {
	if err == nil && result != nil {
		return Outcome{Result: result, Source: SourceNone}
	}
	msg, source := a.Message(err)
	return Outcome{Error: msg, Source: source}
}

// Message returns the display string for a failed pricing call.
func (a Adapter) Message(err error) (string, Source) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.HasDetail {
		return svcErr.Detail, SourceDetail
	}
	return a.fallback(), SourceFallback
}

func (a Adapter) fallback() string {
	if a.Fallback == "" {
		return constants.DefaultFallbackMessage
	}
	return a.Fallback
}
