package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/iwvelando/option-calculator/internal/config"
	"github.com/iwvelando/option-calculator/pkg/constants"
	"github.com/iwvelando/option-calculator/pkg/mathutil"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errIncompleteResult = errors.New("response is missing option_type or option_price")

// Client posts pricing requests to the remote pricing service.
type Client struct {
	http   *resty.Client
	url    string
	logger *zap.Logger
}

// NewClient builds a client for the configured pricing service. Failed calls
// are not retried; the user resubmits.
func NewClient(cfg config.PricingConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetLogger(logger.Sugar())

	return &Client{http: httpClient, url: cfg.URL(), logger: logger}
}

// URL returns the pricing route the client posts to.
func (c *Client) URL() string {
	return c.url
}

// Price submits req and returns the service's result. Errors are either a
// *TransportError or a *ServiceError.
func (c *Client) Price(ctx context.Context, req Request) (*Result, error) {
	requestID := uuid.NewString()
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(constants.RequestIDHeader, requestID).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.url)
	if err != nil {
		c.logger.Warn("pricing request failed",
			zap.String("op", "pricing.Price"),
			zap.String("request_id", requestID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, &TransportError{RequestID: requestID, Err: err}
	}

	body := resp.Body()
	if resp.IsError() {
		detail, ok := decodeDetail(body)
		svcErr := &ServiceError{
			RequestID:  requestID,
			StatusCode: resp.StatusCode(),
			Detail:     detail,
			HasDetail:  ok,
			Body:       body,
		}
		c.logger.Warn("pricing service rejected request",
			zap.String("op", "pricing.Price"),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode()),
			zap.Bool("has_detail", ok),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, svcErr
	}

	// Decoded by hand so a missing or wrong content type cannot leave an
	// empty result.
	var payload struct {
		OptionType  string   `json:"option_type"`
		OptionPrice *float64 `json:"option_price"`
	}
	decodeErr := json.Unmarshal(body, &payload)
	if decodeErr == nil && (payload.OptionType == "" || payload.OptionPrice == nil || !mathutil.IsFinite(*payload.OptionPrice)) {
		decodeErr = errIncompleteResult
	}
	if decodeErr != nil {
		c.logger.Error("pricing service returned an unusable body",
			zap.String("op", "pricing.Price"),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode()),
			zap.Error(decodeErr),
		)
		return nil, &ServiceError{
			RequestID:  requestID,
			StatusCode: resp.StatusCode(),
			Body:       body,
			Err:        decodeErr,
		}
	}

	result := Result{OptionType: payload.OptionType, OptionPrice: *payload.OptionPrice}
	c.logger.Debug("option priced",
		zap.String("op", "pricing.Price"),
		zap.String("request_id", requestID),
		zap.String("option_type", result.OptionType),
		zap.Float64("option_price", result.OptionPrice),
		zap.Duration("duration", time.Since(start)),
	)
	return &result, nil
}
