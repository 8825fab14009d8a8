package types

import (
	"errors"
	"fmt"
	"time"
)

// Itinerary lifecycle states.
const (
	ItineraryPlanned    = "planned"
	ItineraryInProgress = "in_progress"
	ItineraryFinished   = "finished"
)

// Activity lifecycle states.
const (
	ActivityPending   = "pending"
	ActivityDone      = "done"
	ActivityCancelled = "cancelled"
)

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate treats an exactly-zero component as unset, since the UI only
// produces coordinates picked from geocoder suggestions.
func (c Coordinate) Validate() error {
	if c.Latitude == 0 || c.Longitude == 0 {
		return errors.New("coordinates are unset, select a city from the suggestions")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", c.Longitude)
	}
	return nil
}

type CityCandidate struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Coordinate  Coordinate `json:"coordinate"`
}

// WeatherSample is one day of historical weather for a coordinate. Fallback
// marks a synthetic sample substituted when the provider was unreachable.
type WeatherSample struct {
	AvgTemp       float64 `json:"tavg"`
	MinTemp       float64 `json:"tmin"`
	MaxTemp       float64 `json:"tmax"`
	Precipitation float64 `json:"prcp"`
	WindDirection float64 `json:"wdir"`
	WindSpeed     float64 `json:"wspd"`
	Pressure      float64 `json:"pres"`
	Fallback      bool    `json:"fallback,omitempty"`
}

type PredictionInput struct {
	Sample     WeatherSample
	Coordinate Coordinate
}

type ItineraryRequest struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Days        int     `json:"days"`
}

// ItineraryDraft is an itinerary that has not been persisted yet.
type ItineraryDraft struct {
	City                 string  `json:"city"`
	PredictedTemperature float64 `json:"predicted_temperature"`
	State                string  `json:"state"`
}

type Itinerary struct {
	ID                   int64     `json:"id"`
	City                 string    `json:"city"`
	PredictedTemperature float64   `json:"predicted_temperature"`
	State                string    `json:"state"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type ItineraryUpdate struct {
	City                 *string  `json:"city,omitempty"`
	PredictedTemperature *float64 `json:"predicted_temperature,omitempty"`
	State                *string  `json:"state,omitempty"`
}

// ActivityDraft is a timed action proposed by the itinerary generator,
// not yet attached to a persisted itinerary.
type ActivityDraft struct {
	Hour        string `json:"hour"`
	Description string `json:"description"`
	State       string `json:"state"`
}

type Activity struct {
	ID          int64     `json:"id"`
	ItineraryID int64     `json:"itinerary"`
	Hour        string    `json:"hour"`
	Description string    `json:"description"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ActivityUpdate struct {
	Hour        *string `json:"hour,omitempty"`
	Description *string `json:"description,omitempty"`
	State       *string `json:"state,omitempty"`
}

// TripPlan is the structured output of the itinerary generator.
type TripPlan struct {
	Itinerary  ItineraryDraft  `json:"itinerary"`
	Activities []ActivityDraft `json:"activities"`
}

type FailedActivity struct {
	Activity ActivityDraft `json:"activity"`
	Reason   string        `json:"reason"`
}

// SaveResult reports the outcome of persisting a complete itinerary. Success
// reflects only the itinerary row; callers must check FailedActivities to
// detect a partial save.
type SaveResult struct {
	Itinerary        Itinerary        `json:"itinerary"`
	Activities       []Activity       `json:"activities"`
	FailedActivities []FailedActivity `json:"failed_activities,omitempty"`
	Success          bool             `json:"success"`
	Message          string           `json:"message"`
}
