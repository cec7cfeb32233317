package form

import (
	"context"
	"errors"
	"sync"

	"github.com/iwvelando/option-calculator/internal/pricing"
	"github.com/iwvelando/option-calculator/pkg/timeunit"
	"github.com/iwvelando/option-calculator/pkg/validation"
	"go.uber.org/zap"
)

// Submission failures returned by Controller.Submit.
var (
	ErrInvalidForm    = errors.New("form has invalid fields")
	ErrSubmitInFlight = errors.New("a submission is already in flight")
	ErrClosed         = errors.New("form controller is closed")
	ErrNoResult       = errors.New("pricer returned neither a result nor an error")
)

// Pricer prices a request. *pricing.Client satisfies it.
type Pricer interface {
	Price(ctx context.Context, req pricing.Request) (*pricing.Result, error)
}

// Controller owns one form and serializes its updates. Edits may happen
// while a submission is in flight; the submission works on the request it
// captured when it started.
type Controller struct {
	mu      sync.Mutex
	state   State
	closed  bool
	pricer  Pricer
	adapter pricing.Adapter
	logger  *zap.Logger
}

// NewController returns a controller for an empty form.
func NewController(pricer Pricer, adapter pricing.Adapter, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		state:   NewState(),
		pricer:  pricer,
		adapter: adapter,
		logger:  logger,
	}
}

// State returns a copy of the current form state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Edit applies a field change and returns the new state.
func (c *Controller) Edit(field validation.Field, value string) State {
	return c.apply(func(s State) State { return Update(s, field, value) })
}

// SetUnit changes the time unit and returns the new state.
func (c *Controller) SetUnit(unit timeunit.Unit) State {
	return c.apply(func(s State) State { return SetUnit(s, unit) })
}

// SetOptionType switches between call and put and returns the new state.
func (c *Controller) SetOptionType(isCall bool) State {
	return c.apply(func(s State) State { return SetOptionType(s, isCall) })
}

func (c *Controller) apply(reduce func(State) State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = reduce(c.state)
	return c.state.clone()
}

// Submit validates the form, prices it, and records the outcome. The
// previous result and error are cleared before the call is made, and exactly
// one of them is set once it returns.
func (c *Controller) Submit(ctx context.Context) (State, error) {
	req, err := c.begin()
	if err != nil {
		return c.State(), err
	}

	result, priceErr := c.pricer.Price(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.logger.Debug("discarding pricing response for closed form",
			zap.String("op", "form.Submit"),
		)
		return c.state.clone(), ErrClosed
	}

	outcome := c.adapter.Adapt(result, priceErr)
	c.state.Loading = false
	c.state.Result = outcome.Result
	c.state.Error = outcome.Error
	if !outcome.OK() {
		if priceErr == nil {
			priceErr = ErrNoResult
		}
		c.logger.Info("pricing submission failed",
			zap.String("op", "form.Submit"),
			zap.String("source", string(outcome.Source)),
			zap.Error(priceErr),
		)
	}
	return c.state.clone(), priceErr
}

// begin validates and snapshots the request under the lock.
func (c *Controller) begin() (pricing.Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return pricing.Request{}, ErrClosed
	}
	if c.state.Loading {
		return pricing.Request{}, ErrSubmitInFlight
	}

	c.state = ValidateAll(c.state)
	if !c.state.Valid() {
		return pricing.Request{}, ErrInvalidForm
	}

	c.state.Result = nil
	c.state.Error = ""

	req, err := pricing.Build(c.state.Input, c.state.Unit)
	if err != nil {
		// Validation passed, so the builder disagreeing is a bug.
		c.logger.DPanic("request build failed after validation",
			zap.String("op", "form.Submit"),
			zap.Error(err),
		)
		c.state.Error, _ = c.adapter.Message(err)
		return pricing.Request{}, err
	}

	c.state.Loading = true
	return req, nil
}

// Close tears the controller down. A submission still in flight finishes,
// but its response is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.state.Loading = false
}
