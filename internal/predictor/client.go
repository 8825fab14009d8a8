package predictor

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

// request carries the exact field names and rounding the prediction model was
// trained on: one decimal for meteorological fields, whole degrees for wind
// direction, four decimals for coordinates.
type request struct {
	Tavg      float64 `json:"tavg"`
	Tmin      float64 `json:"tmin"`
	Tmax      float64 `json:"tmax"`
	Prcp      float64 `json:"prcp"`
	Wdir      float64 `json:"wdir"`
	Wspd      float64 `json:"wspd"`
	Pres      float64 `json:"pres"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type response struct {
	PredictedTemperature float64 `json:"temperatura_predicha"`
}

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
		panic("Missing baseUrl in predictor client")
	}
	return c
}

// Predict submits a normalized weather sample and its coordinate to the
// temperature-prediction backend. token is optional; when present it is sent
// as a bearer credential. The result is rounded to one decimal regardless of
// the precision the backend answered with.
func (c *Client) Predict(ctx context.Context, in t.PredictionInput, token string) (float64, error) {
	reqBody := request{
		Tavg:      common.Round(in.Sample.AvgTemp, 1),
		Tmin:      common.Round(in.Sample.MinTemp, 1),
		Tmax:      common.Round(in.Sample.MaxTemp, 1),
		Prcp:      common.Round(in.Sample.Precipitation, 1),
		Wdir:      common.Round(in.Sample.WindDirection, 0),
		Wspd:      common.Round(in.Sample.WindSpeed, 1),
		Pres:      common.Round(in.Sample.Pressure, 1),
		Latitude:  common.Round(in.Coordinate.Latitude, 4),
		Longitude: common.Round(in.Coordinate.Longitude, 4),
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("marshalling prediction request: %w", err)
	}

	ctxReq, _ := http.NewRequestWithContext(ctx, "POST", c.baseUrl+"/api/prediction/predict/", bytes.NewReader(bodyBytes))
	ctxReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		ctxReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(ctxReq)
	if err != nil {
		return 0, errors.New(fmt.Sprintf("error on prediction api request: %s", err.Error()))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, common.DecodeError("prediction", resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, errors.New(fmt.Sprintf("error reading prediction response body: %s", err.Error()))
	}

	var respObj response
	if err := json.Unmarshal(body, &respObj); err != nil {
		return 0, errors.New(fmt.Sprintf("error unmarshalling response from prediction: %s", err.Error()))
	}

	return common.Round(respObj.PredictedTemperature, 1), nil
}
