package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/revenue-reporter/internal/pkg/httpretry"
	"github.com/ignite/revenue-reporter/internal/pkg/logger"
)

const pageSize = 250

// Client is the Shopify Admin REST API client.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  httpretry.HTTPDoer
}

// NewClient creates a Shopify client for the given store. Rate limiting
// (429 + Retry-After) and transient failures are handled by the retry
// layer.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2025-07"
	}
	return &Client{
		baseURL:     fmt.Sprintf("https://%s/admin/api/%s", cfg.StoreDomain, apiVersion),
		accessToken: cfg.AccessToken,
		httpClient:  httpretry.NewRetryClient(&http.Client{Timeout: timeout}, cfg.MaxRetries),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// SetBaseURL overrides the API base URL (useful for testing).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// FetchOrders retrieves every order created at or after since, following
// Link-header pagination until the last page. No status filter is
// applied so cancelled and refunded orders stay visible to the pipeline.
func (c *Client) FetchOrders(ctx context.Context, since time.Time) ([]Order, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("status", "any")
	params.Set("created_at_min", since.UTC().Format(time.RFC3339))

	reqURL := fmt.Sprintf("%s/orders.json?%s", c.baseURL, params.Encode())

	var all []Order
	pages := 0
	for reqURL != "" {
		body, header, err := c.get(ctx, reqURL)
		if err != nil {
			return nil, err
		}

		var page ordersResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decoding orders page: %w", err)
		}
		all = append(all, page.Orders...)
		pages++

		// page_info URLs carry their own params; follow them verbatim.
		reqURL = extractNextLink(header.Get("Link"))
	}

	logger.Info("fetched orders", "count", len(all), "pages", pages)
	return all, nil
}

// FetchShopTimezone returns the store's IANA timezone from shop.json,
// falling back to UTC when the shop exposes none.
func (c *Client) FetchShopTimezone(ctx context.Context) (string, error) {
	body, _, err := c.get(ctx, c.baseURL+"/shop.json")
	if err != nil {
		return "", err
	}

	var resp shopResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding shop response: %w", err)
	}
	if resp.Shop.IANATimezone != "" {
		return resp.Shop.IANATimezone, nil
	}
	if resp.Shop.Timezone != "" {
		return resp.Shop.Timezone, nil
	}
	return "UTC", nil
}

// get performs an authenticated GET and returns the body and headers.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("shopify API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, resp.Header, nil
}

// extractNextLink pulls the rel="next" URL out of a Link header:
//
//	<https://.../orders.json?page_info=...&limit=250>; rel="next"
func extractNextLink(link string) string {
	if link == "" {
		return ""
	}
	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}
