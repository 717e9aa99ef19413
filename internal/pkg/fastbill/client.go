// Package fastbill is a minimal client for the FastBill JSON API.
package fastbill

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// PageSize is the LIMIT sent with every customer.get call
	PageSize = 100
	// MaxPages bounds a single listing
	MaxPages = 1000
)

var (
	ErrNotConfigured = errors.New("fastbill email or API key is missing")
	ErrAPI           = errors.New("fastbill API error")
	ErrTooManyPages  = errors.New("fastbill customer listing exceeded the page limit")
)

// Config holds the API endpoint and credentials
type Config struct {
	APIURL  string
	Email   string
	APIKey  string
	Timeout time.Duration
}

// Customer is a customer record as returned by customer.get
type Customer struct {
	CustomerID string `json:"CUSTOMER_ID"`
	FirstName  string `json:"FIRST_NAME"`
	LastName   string `json:"LAST_NAME"`
	Email      string `json:"EMAIL"`
	Phone      string `json:"PHONE"`
	Address    string `json:"ADDRESS"`
}

type request struct {
	Service     string         `json:"SERVICE"`
	Filter      map[string]any `json:"FILTER"`
	LimitFields []string       `json:"LIMIT_FIELDS,omitempty"`
	Limit       int            `json:"LIMIT"`
	Offset      int            `json:"OFFSET"`
}

type customerResponse struct {
	Response struct {
		Customers []Customer `json:"CUSTOMERS"`
		Errors    []string   `json:"ERRORS"`
	} `json:"RESPONSE"`
}

var customerFields = []string{"CUSTOMER_ID", "FIRST_NAME", "LAST_NAME", "EMAIL", "PHONE", "ADDRESS"}

// Client talks to FastBill
type Client struct {
	cfg      Config
	http     *http.Client
	maxPages int
	logger   zerolog.Logger
}

// NewClient creates a client. Email and API key are required.
func NewClient(cfg Config, lgr zerolog.Logger) (*Client, error) {
	if cfg.APIURL == "" || cfg.Email == "" || cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		maxPages: MaxPages,
		logger:   lgr,
	}, nil
}

// ListCustomers pages through customer.get until a short page is returned.
// Paging also stops when a page brings no unseen CUSTOMER_ID, so a server
// ignoring OFFSET cannot loop forever.
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	var all []Customer
	seen := make(map[string]struct{})
	for pages := 0; ; pages++ {
		if pages >= c.maxPages {
			c.logger.Error().Int("pages", pages).Msg("FastBill customer listing exceeded the page limit")
			return nil, ErrTooManyPages
		}

		page, err := c.customerPage(ctx, pages*PageSize)
		if err != nil {
			return nil, err
		}

		fresh := 0
		for _, cust := range page {
			if _, dup := seen[cust.CustomerID]; dup {
				continue
			}
			seen[cust.CustomerID] = struct{}{}
			all = append(all, cust)
			fresh++
		}
		if len(page) < PageSize {
			break
		}
		if fresh == 0 {
			c.logger.Warn().Int("offset", pages*PageSize).Msg("FastBill returned a page without new customers, stopping")
			break
		}
	}

	c.logger.Info().Int("count", len(all)).Msg("Fetched customers from FastBill")
	return all, nil
}

func (c *Client) customerPage(ctx context.Context, offset int) ([]Customer, error) {
	body, err := json.Marshal(request{
		Service:     "customer.get",
		Filter:      map[string]any{},
		LimitFields: customerFields,
		Limit:       PageSize,
		Offset:      offset,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Email, c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error connecting to FastBill API")
		return nil, fmt.Errorf("%w: %v", ErrAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error().Int("status", resp.StatusCode).Str("body", string(snippet)).Msg("FastBill API returned an error status")
		return nil, fmt.Errorf("%w: status %d", ErrAPI, resp.StatusCode)
	}

	var out customerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrAPI, err)
	}
	if len(out.Response.Errors) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrAPI, out.Response.Errors)
	}

	return out.Response.Customers, nil
}
