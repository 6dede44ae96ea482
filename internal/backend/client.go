package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"LLMChatbot/internal/chatlog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chatwidget/backend"

// Client calls an OpenAI-compatible chat completions endpoint
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter

	duration    metric.Float64Histogram
	completions metric.Int64Counter
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTracer overrides the globally registered tracer
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) { c.tracer = tracer }
}

// WithMeter overrides the globally registered meter
func WithMeter(meter metric.Meter) Option {
	return func(c *Client) { c.meter = meter }
}

// NewClient creates a completion client for endpoint using model
func NewClient(endpoint, model string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(instrumentationName)
	}
	if c.meter == nil {
		c.meter = otel.Meter(instrumentationName)
	}

	var err error
	c.duration, err = c.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		c.logger.Warn("failed to create duration histogram", "error", err)
	}
	c.completions, err = c.meter.Int64Counter(
		"llm.completions",
		metric.WithDescription("Completion requests by outcome"),
	)
	if err != nil {
		c.logger.Warn("failed to create completions counter", "error", err)
	}

	return c
}

// Model returns the model identifier sent with every request
func (c *Client) Model() string {
	return c.model
}

// Complete sends the full message history and returns the first choice's content
func (c *Client) Complete(ctx context.Context, credential string, messages []chatlog.WireMessage) (string, error) {
	ctx, span := c.tracer.Start(ctx, "openai_api_call",
		trace.WithAttributes(
			attribute.String("llm.model", c.model),
			attribute.Int("llm.messages", len(messages)),
		),
	)
	defer span.End()

	start := time.Now()
	reply, err := c.complete(ctx, credential, messages)
	c.record(ctx, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("completion failed", "model", c.model, "error", err)
		return "", err
	}

	c.logger.Info("completion succeeded", "model", c.model, "messages", len(messages), "reply_len", len(reply))
	return reply, nil
}

func (c *Client) complete(ctx context.Context, credential string, messages []chatlog.WireMessage) (string, error) {
	reqBody := OpenAIRequest{
		Model:    c.model,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &TransportError{Op: "failed to marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &TransportError{Op: "failed to create request", Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "failed to send request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var apiResp OpenAIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", &TransportError{Op: "failed to unmarshal response", Err: err}
	}

	c.recordUsage(ctx, apiResp.Usage)

	if len(apiResp.Choices) == 0 {
		return "", &TransportError{Op: "empty response from completion API"}
	}

	return apiResp.Choices[0].Message.Content, nil
}

func (c *Client) record(ctx context.Context, elapsed time.Duration, err error) {
	if c.duration != nil {
		c.duration.Record(ctx, float64(elapsed.Milliseconds()))
	}
	if c.completions != nil {
		c.completions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
	}
}

// recordUsage records token counts reported by the API
func (c *Client) recordUsage(ctx context.Context, usage map[string]interface{}) {
	for key, value := range usage {
		n, ok := value.(float64)
		if !ok {
			continue
		}
		counter, err := c.meter.Int64Counter(
			fmt.Sprintf("llm.usage.%s", key),
			metric.WithDescription(fmt.Sprintf("LLM usage metric: %s", key)),
		)
		if err != nil {
			c.logger.Warn("failed to create counter", "key", key, "error", err)
			continue
		}
		counter.Add(ctx, int64(n))
	}
}

func outcome(err error) string {
	var reqErr *RequestError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &reqErr):
		return "request_error"
	default:
		return "transport_error"
	}
}
