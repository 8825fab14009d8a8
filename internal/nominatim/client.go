package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	t "github.com/climatour/climatour-service/internal/types"
	"go.uber.org/zap"
)

// Place is one candidate in the geocoder's response. Coordinates arrive
// string-encoded.
type Place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type ClientOption func(*Client)

type Client struct {
	baseUrl string
	limit   int
	logger  *zap.SugaredLogger
}

func BaseUrlOption(baseUrl string) ClientOption {
	return func(c *Client) {
		c.baseUrl = baseUrl
	}
}

func LimitOption(limit int) ClientOption {
	return func(c *Client) {
		c.limit = limit
	}
}

func LoggerOption(logger *zap.SugaredLogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(opts ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseUrl == "" {
		panic("Missing baseUrl in nominatim client")
	}
	if c.limit == 0 {
		c.limit = 5
	}
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	return c
}

// Search resolves a free-text city query to candidate coordinates. Autocomplete
// is best-effort: any provider failure is logged and yields an empty result so
// the form is never blocked. Queries shorter than three characters return
// immediately without a network call.
func (c *Client) Search(ctx context.Context, query string) []t.CityCandidate {
	if utf8.RuneCountInString(query) <= 2 {
		return nil
	}

	req, err := url.Parse(c.baseUrl + "/search")
	if err != nil {
		c.logger.Errorf("failed to parse nominatim baseUrl %s: %s", c.baseUrl, err.Error())
		return nil
	}

	q := req.Query()
	q.Add("format", "json")
	q.Add("q", query)
	q.Add("limit", strconv.Itoa(c.limit))
	q.Add("addressdetails", "1")
	req.RawQuery = q.Encode()

	ctxReq, _ := http.NewRequestWithContext(ctx, "GET", req.String(), nil)
	resp, err := http.DefaultClient.Do(ctxReq)
	if err != nil {
		c.logger.Warnf("error on nominatim search request: %s", err.Error())
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warnf("error code %d returned from nominatim", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warnf("error reading nominatim response body: %s", err.Error())
		return nil
	}

	var places []Place
	if err := json.Unmarshal(body, &places); err != nil {
		c.logger.Warnf("error unmarshalling response from nominatim: %s", err.Error())
		return nil
	}

	return c.candidatesFromPlaces(places)
}

// candidatesFromPlaces deduplicates by exact coordinate pair, first occurrence
// winning, and collapses the display name to "first segment, last segment".
func (c *Client) candidatesFromPlaces(places []Place) []t.CityCandidate {
	seen := make(map[t.Coordinate]bool)
	var candidates []t.CityCandidate
	for _, place := range places {
		lat, latErr := strconv.ParseFloat(place.Lat, 64)
		lon, lonErr := strconv.ParseFloat(place.Lon, 64)
		if latErr != nil || lonErr != nil {
			c.logger.Warnf("skipping nominatim place with bad coordinates (%q, %q)", place.Lat, place.Lon)
			continue
		}
		coord := t.Coordinate{Latitude: lat, Longitude: lon}
		if seen[coord] {
			continue
		}
		seen[coord] = true

		parts := strings.Split(place.DisplayName, ",")
		first := parts[0]
		last := strings.TrimSpace(parts[len(parts)-1])
		candidates = append(candidates, t.CityCandidate{
			Name:        first,
			DisplayName: first + ", " + last,
			Coordinate:  coord,
		})
	}
	return candidates
}
