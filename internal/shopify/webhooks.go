package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"pdf-delivery-service/internal/models"
)

// Client talks to the Shopify Admin REST API for one shop.
type Client struct {
	shop        string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
	logger      *logrus.Logger
}

// NewClient creates a new Admin API client
func NewClient(shop, accessToken, apiVersion string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	if apiVersion == "" {
		apiVersion = "2024-07"
	}
	return &Client{
		shop:        models.NormalizeShopDomain(shop),
		accessToken: accessToken,
		apiVersion:  apiVersion,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
	}
}

type webhookSubscription struct {
	ID      int64  `json:"id,omitempty"`
	Topic   string `json:"topic"`
	Address string `json:"address"`
	Format  string `json:"format,omitempty"`
}

type webhookList struct {
	Webhooks []webhookSubscription `json:"webhooks"`
}

type webhookEnvelope struct {
	Webhook webhookSubscription `json:"webhook"`
}

// EnsureWebhooks registers the subscriptions this service depends on,
// mapping each topic to its delivery path under webhookBase. Already
// registered (topic, address) pairs are left alone, so calling this on every
// boot is safe.
func (c *Client) EnsureWebhooks(ctx context.Context, webhookBase string) error {
	wanted := map[string]string{
		"orders/create":   webhookBase + "/api/webhooks/orders/create",
		"app/uninstalled": webhookBase + "/api/webhooks/app/uninstalled",
	}

	existing, err := c.listWebhooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list webhooks: %w", err)
	}

	registered := make(map[string]bool, len(existing))
	for _, hook := range existing {
		registered[hook.Topic+" "+hook.Address] = true
	}

	for topic, address := range wanted {
		if registered[topic+" "+address] {
			c.logger.WithFields(logrus.Fields{
				"topic":   topic,
				"address": address,
			}).Debug("Webhook already registered")
			continue
		}
		if err := c.createWebhook(ctx, topic, address); err != nil {
			return fmt.Errorf("failed to register %s webhook: %w", topic, err)
		}
		c.logger.WithFields(logrus.Fields{
			"topic":   topic,
			"address": address,
		}).Info("Registered webhook")
	}

	return nil
}

func (c *Client) listWebhooks(ctx context.Context) ([]webhookSubscription, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "webhooks.json", nil)
	if err != nil {
		return nil, err
	}

	var list webhookList
	if err := c.do(req, &list); err != nil {
		return nil, err
	}
	return list.Webhooks, nil
}

func (c *Client) createWebhook(ctx context.Context, topic, address string) error {
	body, err := json.Marshal(webhookEnvelope{Webhook: webhookSubscription{
		Topic:   topic,
		Address: address,
		Format:  "json",
	}})
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "webhooks.json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

func (c *Client) newRequest(ctx context.Context, method, resource string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("https://%s/admin/api/%s/%s", c.shop, c.apiVersion, resource)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("shopify API error: %d - %s", resp.StatusCode, string(payload))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
