package aiplanner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/climatour/climatour-service/internal/common"
	types "github.com/climatour/climatour-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/ai/itinerary/", r.URL.Path)
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Cartagena", req["city"])
		assert.Equal(t, 28.5, req["temperature"])
		assert.Equal(t, float64(2), req["days"])

		fmt.Fprint(w, `{
			"itinerary": {"city": "Cartagena", "predicted_temperature": 28.5, "state": "planned"},
			"activities": [
				{"hour": "09:00", "description": "Walk the walled city", "state": "pending"},
				{"hour": "14:30:00", "description": "Beach at Bocagrande", "state": "pending"}
			]
		}`)
	}))
	defer server.Close()

	c := New(BaseUrlOption(server.URL))
	plan, err := c.Generate(context.Background(), types.ItineraryRequest{
		City:        "Cartagena",
		Temperature: 28.5,
		Days:        2,
	}, "tok123")

	require.NoError(t, err)
	assert.Equal(t, "Cartagena", plan.Itinerary.City)
	assert.Equal(t, 28.5, plan.Itinerary.PredictedTemperature)
	assert.Equal(t, types.ItineraryPlanned, plan.Itinerary.State)
	require.Len(t, plan.Activities, 2)
	assert.Equal(t, "09:00", plan.Activities[0].Hour)
	assert.Equal(t, "Beach at Bocagrande", plan.Activities[1].Description)
}

func TestGenerateErrorTranslation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		fmt.Fprint(w, `{"error": "generation quota exceeded"}`)
	}))
	defer server.Close()

	c := New(BaseUrlOption(server.URL))
	_, err := c.Generate(context.Background(), types.ItineraryRequest{City: "Cartagena", Temperature: 28.5, Days: 2}, "")

	var apiErr common.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, "generation quota exceeded", apiErr.Message)
}

func TestGenerateUnreachableBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := New(BaseUrlOption(server.URL))
	_, err := c.Generate(context.Background(), types.ItineraryRequest{City: "Cartagena", Temperature: 28.5, Days: 2}, "")
	assert.Error(t, err)
}
