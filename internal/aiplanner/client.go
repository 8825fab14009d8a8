package aiplanner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/climatour/climatour-service/internal/common"
	t "github.com/climatour/climatour-service/internal/types"
)

type ClientOption func(*Client)

type Client struct {
	baseUrl string
}

func BaseUrlOption(baseUrl string) ClientOption {
	return func(c *Client) {
		c.baseUrl = baseUrl
	}
}

func New(opts ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseUrl == "" {
		panic("Missing baseUrl in aiplanner client")
	}
	return c
}

// Generate asks the generative backend for a structured itinerary. This is the
// most expensive call of the pipeline and is deliberately fail-fast: no
// retries, a failure aborts trip creation.
func (c *Client) Generate(ctx context.Context, req t.ItineraryRequest, token string) (*t.TripPlan, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling itinerary request: %w", err)
	}

	ctxReq, _ := http.NewRequestWithContext(ctx, "POST", c.baseUrl+"/api/ai/itinerary/", bytes.NewReader(bodyBytes))
	ctxReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		ctxReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(ctxReq)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error on itinerary api request: %s", err.Error()))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, common.DecodeError("itinerary", resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("error reading itinerary response body: %s", err.Error()))
	}

	var plan t.TripPlan
	if err := json.Unmarshal(body, &plan); err != nil {
		return nil, errors.New(fmt.Sprintf("error unmarshalling response from itinerary: %s", err.Error()))
	}

	return &plan, nil
}
