package paddle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codana-ai/billing-sync/pkg/config"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/codana-ai/billing-sync/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAPIKeyRequired        = errors.New("paddle api key is required")
	errWebhookSecretRequired = errors.New("paddle webhook secret is required")
	errInvalidPaddleEnv      = fmt.Errorf("paddle environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired        = errors.New("paddle logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://sandbox-api.paddle.com",
	productionEnv: "https://api.paddle.com",
}

// Client exposes the Paddle REST primitives this service consumes, with
// centralized auth, logging, and error mapping.
type Client struct {
	httpClient    *http.Client
	apiKey        string
	environment   string
	webhookSecret string
	baseURL       string
	logger        *logger.Logger
}

// NewClient initializes the Paddle wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PaddleConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		apiKey:        apiKey,
		environment:   env,
		webhookSecret: webhookSecret,
		baseURL:       baseURLs[env],
		logger:        logg,
	}

	logg.Info(ctx, "paddle client initialized")
	return c, nil
}

// Environment reports the normalized Paddle environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the Paddle webhook secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// GetCustomer fetches a customer record by its Paddle id.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	c.log(ctx, "request", "get_customer", map[string]any{"customer_id": customerID})

	var out struct {
		Data *Customer `json:"data"`
	}
	if err := c.get(ctx, "/customers/"+url.PathEscape(customerID), nil, &out); err != nil {
		c.log(ctx, "error", "get_customer", map[string]any{"error": err.Error()})
		return nil, err
	}
	if out.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paddle returned empty customer")
	}

	c.log(ctx, "response", "get_customer", map[string]any{
		"customer_id": out.Data.ID,
		"email":       out.Data.Email,
	})
	return out.Data, nil
}

// GetSubscription fetches a subscription snapshot by its Paddle id.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	c.log(ctx, "request", "get_subscription", map[string]any{"subscription_id": subscriptionID})

	var out struct {
		Data *Subscription `json:"data"`
	}
	if err := c.get(ctx, "/subscriptions/"+url.PathEscape(subscriptionID), nil, &out); err != nil {
		c.log(ctx, "error", "get_subscription", map[string]any{"error": err.Error()})
		return nil, err
	}
	if out.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paddle returned empty subscription")
	}

	c.log(ctx, "response", "get_subscription", map[string]any{
		"subscription_id": out.Data.ID,
		"status":          out.Data.Status,
	})
	return out.Data, nil
}

// ListSubscriptions returns the customer's subscriptions, optionally filtered
// by status.
func (c *Client) ListSubscriptions(ctx context.Context, customerID, status string) ([]Subscription, error) {
	c.log(ctx, "request", "list_subscriptions", map[string]any{
		"customer_id": customerID,
		"status":      status,
	})

	query := url.Values{}
	if strings.TrimSpace(customerID) != "" {
		query.Set("customer_id", customerID)
	}
	if strings.TrimSpace(status) != "" {
		query.Set("status", status)
	}

	var out struct {
		Data []Subscription `json:"data"`
	}
	if err := c.get(ctx, "/subscriptions", query, &out); err != nil {
		c.log(ctx, "error", "list_subscriptions", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "list_subscriptions", map[string]any{"count": len(out.Data)})
	return out.Data, nil
}

// ListProducts returns the catalog products visible to the API key.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	c.log(ctx, "request", "list_products", nil)

	var out struct {
		Data []Product `json:"data"`
	}
	if err := c.get(ctx, "/products", nil, &out); err != nil {
		c.log(ctx, "error", "list_products", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "list_products", map[string]any{"count": len(out.Data)})
	return out.Data, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build paddle request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call paddle api")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read paddle response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapAPIError(resp.StatusCode, body, path)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paddle response")
	}
	return nil
}

func (c *Client) mapAPIError(status int, body []byte, path string) error {
	detail := ""
	var payload struct {
		Error struct {
			Code   string `json:"code"`
			Detail string `json:"detail"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		detail = payload.Error.Detail
		if detail == "" {
			detail = payload.Error.Code
		}
	}
	msg := fmt.Sprintf("paddle GET %s failed with status %d", path, status)
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}
	return pkgerrors.New(domainCodeForStatus(status), msg)
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("paddle %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("paddle %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"secret", "token", "email", "key"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidPaddleEnv
	}
}
