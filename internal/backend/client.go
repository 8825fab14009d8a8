// Package backend is the client for the owned persistence service: bearer
// authenticated REST CRUD for itineraries and their activities.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/climatour/climatour-service/internal/common"
	"github.com/climatour/climatour-service/internal/session"
	t "github.com/climatour/climatour-service/internal/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseUrl is the local-development backend address.
const DefaultBaseUrl = "http://localhost:8000"

type createActivityRequest struct {
	Itinerary   int64  `json:"itinerary"`
	Hour        string `json:"hour"`
	Description string `json:"description"`
	State       string `json:"state"`
}

type ClientOption func(*Client)

type Client struct {
	baseUrl string
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

func BaseUrlOption(baseUrl string) ClientOption {
	return func(c *Client) {
		c.baseUrl = baseUrl
	}
}

func LoggerOption(logger *zap.SugaredLogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// PacingOption sets the minimum interval between successive activity-create
// calls in SaveCompleteItinerary.
func PacingOption(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

func New(opts ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseUrl == "" {
		c.baseUrl = DefaultBaseUrl
	}
	if c.limiter == nil {
		// Courtesy pacing so a bulk save does not hammer the backend.
		c.limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 1)
	}
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	return c
}

// do issues one authenticated JSON request and decodes the response into out
// when out is non-nil. Non-2xx responses become an APIError carrying the
// backend's message.
func (c *Client) do(ctx context.Context, ts session.TokenSource, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling backend request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	ctxReq, _ := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reader)
	ctxReq.Header.Set("Content-Type", "application/json")
	token := ""
	if ts != nil {
		var err error
		token, err = ts.Token(ctx)
		if err != nil {
			return fmt.Errorf("fetching auth token: %w", err)
		}
	}
	if token != "" {
		ctxReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(ctxReq)
	if err != nil {
		return errors.New(fmt.Sprintf("error on backend api request: %s", err.Error()))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return common.DecodeError("backend", resp)
	}
	if out == nil {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(fmt.Sprintf("error reading backend response body: %s", err.Error()))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.New(fmt.Sprintf("error unmarshalling response from backend: %s", err.Error()))
	}
	return nil
}

func (c *Client) CreateItinerary(ctx context.Context, ts session.TokenSource, draft t.ItineraryDraft) (*t.Itinerary, error) {
	var itin t.Itinerary
	if err := c.do(ctx, ts, "POST", "/api/itineraries/", draft, &itin); err != nil {
		return nil, err
	}
	return &itin, nil
}

func (c *Client) GetItineraries(ctx context.Context, ts session.TokenSource) ([]t.Itinerary, error) {
	var itins []t.Itinerary
	if err := c.do(ctx, ts, "GET", "/api/itineraries/", nil, &itins); err != nil {
		return nil, err
	}
	return itins, nil
}

func (c *Client) GetItineraryById(ctx context.Context, ts session.TokenSource, id int64) (*t.Itinerary, error) {
	var itin t.Itinerary
	if err := c.do(ctx, ts, "GET", itineraryPath(id), nil, &itin); err != nil {
		return nil, err
	}
	return &itin, nil
}

func (c *Client) UpdateItinerary(ctx context.Context, ts session.TokenSource, id int64, update t.ItineraryUpdate) (*t.Itinerary, error) {
	var itin t.Itinerary
	if err := c.do(ctx, ts, "PUT", itineraryPath(id), update, &itin); err != nil {
		return nil, err
	}
	return &itin, nil
}

// DeleteItinerary removes the itinerary row only. Activity rows are not
// cascaded; they are deleted by explicit DeleteActivity calls.
func (c *Client) DeleteItinerary(ctx context.Context, ts session.TokenSource, id int64) error {
	return c.do(ctx, ts, "DELETE", itineraryPath(id), nil, nil)
}

func (c *Client) CreateActivity(ctx context.Context, ts session.TokenSource, itineraryId int64, draft t.ActivityDraft) (*t.Activity, error) {
	req := createActivityRequest{
		Itinerary:   itineraryId,
		Hour:        draft.Hour,
		Description: draft.Description,
		State:       draft.State,
	}
	var act t.Activity
	if err := c.do(ctx, ts, "POST", "/api/activities/", req, &act); err != nil {
		return nil, err
	}
	return &act, nil
}

func (c *Client) GetActivities(ctx context.Context, ts session.TokenSource, itineraryId int64) ([]t.Activity, error) {
	var acts []t.Activity
	path := "/api/activities/?itinerary=" + strconv.FormatInt(itineraryId, 10)
	if err := c.do(ctx, ts, "GET", path, nil, &acts); err != nil {
		return nil, err
	}
	return acts, nil
}

func (c *Client) UpdateActivity(ctx context.Context, ts session.TokenSource, id int64, update t.ActivityUpdate) (*t.Activity, error) {
	var act t.Activity
	if err := c.do(ctx, ts, "PUT", activityPath(id), update, &act); err != nil {
		return nil, err
	}
	return &act, nil
}

func (c *Client) DeleteActivity(ctx context.Context, ts session.TokenSource, id int64) error {
	return c.do(ctx, ts, "DELETE", activityPath(id), nil, nil)
}

func itineraryPath(id int64) string {
	return "/api/itineraries/" + strconv.FormatInt(id, 10) + "/"
}

func activityPath(id int64) string {
	return "/api/activities/" + strconv.FormatInt(id, 10) + "/"
}
