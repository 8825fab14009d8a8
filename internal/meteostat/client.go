package meteostat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/climatour/climatour-service/internal/common"
	t "github.com/climatour/climatour-service/internal/types"
	"go.uber.org/zap"
)

// ErrNoData means the provider answered successfully but had no daily record
// for the requested coordinate and date.
var ErrNoData = errors.New("no weather data available")

// Fixed substitutes used when the provider is unreachable or a field is
// missing from an otherwise valid record.
const (
	fallbackAvgTemp       = 25.5
	fallbackMinTemp       = 20.0
	fallbackMaxTemp       = 30.0
	fallbackPrecipitation = 0.0
	fallbackWindDirection = 180
	fallbackWindSpeed     = 10.5
	fallbackPressure      = 1013.2
)

type response struct {
	Data []record `json:"data"`
}

// record uses pointers so absent fields are distinguishable from zeroes.
type record struct {
	Tavg *float64 `json:"tavg"`
	Tmin *float64 `json:"tmin"`
	Tmax *float64 `json:"tmax"`
	Prcp *float64 `json:"prcp"`
	Wdir *float64 `json:"wdir"`
	Wspd *float64 `json:"wspd"`
	Pres *float64 `json:"pres"`
}

type ClientOption func(*Client)

type Client struct {
	apiKey  string
	apiHost string
	baseUrl string
	logger  *zap.SugaredLogger
}

func ApiKeyOption(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

func ApiHostOption(apiHost string) ClientOption {
	return func(c *Client) {
		c.apiHost = apiHost
	}
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

func New(opts ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		panic("Missing apikey in meteostat client")
	}
	if c.apiHost == "" {
		panic("Missing apihost in meteostat client")
	}
	if c.baseUrl == "" {
		panic("Missing baseUrl in meteostat client")
	}
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	return c
}

// FallbackSample is the fixed substitute reading returned when the provider
// cannot be reached. Weather is a non-critical input signal, so availability
// wins over correctness here; the Fallback flag lets callers tell the
// difference.
func FallbackSample() t.WeatherSample {
	return t.WeatherSample{
		AvgTemp:       fallbackAvgTemp,
		MinTemp:       fallbackMinTemp,
		MaxTemp:       fallbackMaxTemp,
		Precipitation: fallbackPrecipitation,
		WindDirection: fallbackWindDirection,
		WindSpeed:     fallbackWindSpeed,
		Pressure:      fallbackPressure,
		Fallback:      true,
	}
}

// Daily fetches the historical daily weather for one coordinate and date
// (YYYY-MM-DD). Transport and provider errors are absorbed into the fallback
// sample; the only error ever returned is ErrNoData, meaning the provider
// answered but its dataset was empty.
func (c *Client) Daily(ctx context.Context, coord t.Coordinate, date string) (t.WeatherSample, error) {
	req, err := url.Parse(c.baseUrl + "/point/daily")
	if err != nil {
		c.logger.Errorf("failed to parse meteostat baseUrl %s: %s", c.baseUrl, err.Error())
		return FallbackSample(), nil
	}

	q := req.Query()
	q.Add("lat", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	q.Add("lon", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	q.Add("start", date)
	q.Add("end", date)
	req.RawQuery = q.Encode()

	ctxReq, _ := http.NewRequestWithContext(ctx, "GET", req.String(), nil)
	ctxReq.Header.Set("x-rapidapi-key", c.apiKey)
	ctxReq.Header.Set("x-rapidapi-host", c.apiHost)
	ctxReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(ctxReq)
	if err != nil {
		c.logger.Warnf("error on meteostat request, using fallback sample: %s", err.Error())
		return FallbackSample(), nil
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warnf("error code %d returned from meteostat, using fallback sample", resp.StatusCode)
		return FallbackSample(), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warnf("error reading meteostat response body, using fallback sample: %s", err.Error())
		return FallbackSample(), nil
	}

	var respObj response
	if err := json.Unmarshal(body, &respObj); err != nil {
		c.logger.Warnf("error unmarshalling response from meteostat, using fallback sample: %s", err.Error())
		return FallbackSample(), nil
	}
	if len(respObj.Data) == 0 {
		return t.WeatherSample{}, ErrNoData
	}

	r := respObj.Data[0]
	return t.WeatherSample{
		AvgTemp:       field(r.Tavg, fallbackAvgTemp, 1),
		MinTemp:       field(r.Tmin, fallbackMinTemp, 1),
		MaxTemp:       field(r.Tmax, fallbackMaxTemp, 1),
		Precipitation: field(r.Prcp, fallbackPrecipitation, 1),
		WindDirection: field(r.Wdir, fallbackWindDirection, 0),
		WindSpeed:     field(r.Wspd, fallbackWindSpeed, 1),
		Pressure:      field(r.Pres, fallbackPressure, 1),
	}, nil
}

func field(v *float64, fallback float64, decimals int) float64 {
	if v == nil {
		return fallback
	}
	return common.Round(*v, decimals)
}
