// Package shipping looks up courier rates from RajaOngkir.
package shipping

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
)

// DefaultCourier is used when the caller does not pick one.
const DefaultCourier = "jne"

// CostDetail is one price quote of a service.
type CostDetail struct {
	Value int    `json:"value"`
	ETD   string `json:"etd"`
	Note  string `json:"note"`
}

// Cost is one courier service with its quotes.
type Cost struct {
	Service     string       `json:"service"`
	Description string       `json:"description"`
	Cost        []CostDetail `json:"cost"`
}

// Request is a cost query. Weight is in grams.
type Request struct {
	Origin      string
	Destination string
	Weight      int
	Courier     string
}

// ProviderError carries a non-success answer from the provider. Body is
// only meant for logs.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("rajaongkir: status %d", e.Status)
}

// Client calls the starter API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type costEnvelope struct {
	RajaOngkir struct {
		Status struct {
			Code        int    `json:"code"`
			Description string `json:"description"`
		} `json:"status"`
		Results []struct {
			Code  string `json:"code"`
			Name  string `json:"name"`
			Costs []Cost `json:"costs"`
		} `json:"results"`
	} `json:"rajaongkir"`
}

// Cost returns the services the courier offers between two cities.
func (c *Client) Cost(ctx context.Context, r Request) ([]Cost, error) {
	const op = "shipping.Client.Cost"
	courier := r.Courier
	if courier == "" {
		courier = DefaultCourier
	}
	form := url.Values{
		"origin":      {r.Origin},
		"destination": {r.Destination},
		"weight":      {strconv.Itoa(r.Weight)},
		"courier":     {courier},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"cost", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s: %w", op, &ProviderError{Status: resp.StatusCode, Body: string(body)})
	}

	var env costEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	if env.RajaOngkir.Status.Code != http.StatusOK {
		return nil, fmt.Errorf("%s: %w", op, &ProviderError{
			Status: env.RajaOngkir.Status.Code,
			Body:   env.RajaOngkir.Status.Description,
		})
	}
	if len(env.RajaOngkir.Results) == 0 {
		return []Cost{}, nil
	}
	return env.RajaOngkir.Results[0].Costs, nil
}
