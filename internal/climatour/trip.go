package climatour

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/climatour/climatour-service/internal/session"
	t "github.com/climatour/climatour-service/internal/types"
)

// Trip length offered by the UI.
const (
	minDays = 1
	maxDays = 4
)

// Stage identifies the pipeline step an error came from, so callers map
// failures to user-facing messages without inspecting error text.
type Stage string

const (
	StageValidation  Stage = "validation"
	StageWeather     Stage = "weather"
	StageTemperature Stage = "temperature"
	StageItinerary   Stage = "itinerary"
)

type TripError struct {
	Stage Stage
	Err   error
}

func (e *TripError) Error() string {
	return fmt.Sprintf("%s stage: %s", e.Stage, e.Err.Error())
}

func (e *TripError) Unwrap() error {
	return e.Err
}

type TripRequest struct {
	City       string       `json:"city"`
	Coordinate t.Coordinate `json:"coordinate"`
	Days       int          `json:"days"`
}

type TripResult struct {
	Weather              t.WeatherSample `json:"weather"`
	PredictedTemperature float64         `json:"predicted_temperature"`
	Plan                 *t.TripPlan     `json:"plan"`
}

// CreateTrip runs the trip-creation pipeline: validate, fetch today's weather,
// predict tomorrow's temperature, generate an itinerary. The stages are
// strictly sequential; each consumes the previous stage's output. The result
// is not persisted, saving is a separate user-triggered step.
func (s *Service) CreateTrip(ctx context.Context, req TripRequest, sess *session.Session) (*TripResult, error) {
	if err := validateTrip(req); err != nil {
		return nil, &TripError{Stage: StageValidation, Err: err}
	}

	sample, err := s.weather.Daily(ctx, req.Coordinate, today())
	if err != nil {
		// Only an empty dataset surfaces here; transport failures were
		// already absorbed into the fallback sample.
		return nil, &TripError{Stage: StageWeather, Err: err}
	}
	if sample.Fallback {
		s.Logger.Warnw("weather provider unavailable, continuing with fallback sample",
			"city", req.City)
	}
	// The weather client swallows transport errors, including a cancelled
	// context, so check before committing to the expensive stages.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token, err := sess.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching auth token: %w", err)
	}

	temperature, err := s.pred.Predict(ctx, t.PredictionInput{
		Sample:     sample,
		Coordinate: req.Coordinate,
	}, token)
	if err != nil {
		s.Logger.Errorw("error predicting temperature",
			"city", req.City, "error", err.Error())
		return nil, &TripError{Stage: StageTemperature, Err: err}
	}

	plan, err := s.planner.Generate(ctx, t.ItineraryRequest{
		City:        req.City,
		Temperature: temperature,
		Days:        req.Days,
	}, token)
	if err != nil {
		s.Logger.Errorw("error generating itinerary",
			"city", req.City, "days", req.Days, "error", err.Error())
		return nil, &TripError{Stage: StageItinerary, Err: err}
	}

	return &TripResult{
		Weather:              sample,
		PredictedTemperature: temperature,
		Plan:                 plan,
	}, nil
}

func validateTrip(req TripRequest) error {
	if strings.TrimSpace(req.City) == "" {
		return errors.New("please select a valid city")
	}
	if err := req.Coordinate.Validate(); err != nil {
		return err
	}
	if req.Days < minDays || req.Days > maxDays {
		return fmt.Errorf("number of days must be between %d and %d", minDays, maxDays)
	}
	return nil
}
