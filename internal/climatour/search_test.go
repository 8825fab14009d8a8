package climatour

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	types "github.com/climatour/climatour-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeBody(name string, lat, lon float64) string {
	return fmt.Sprintf(`[{"lat": "%v", "lon": "%v", "display_name": "%s, Colombia"}]`, lat, lon, name)
}

func TestSearchCitiesShortQuery(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	s := newTestService(server.URL, server.URL, server.URL)
	assert.Empty(t, s.SearchCities(context.Background(), "ca"))
	assert.Empty(t, s.SearchCities(context.Background(), "mü"))
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestSearchCities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, placeBody("Cartagena", 10.4, -75.5))
	}))
	defer server.Close()

	s := newTestService(server.URL, server.URL, server.URL)
	cities := s.SearchCities(context.Background(), "cartagena")
	require.Len(t, cities, 1)
	assert.Equal(t, "Cartagena", cities[0].Name)
	assert.Equal(t, types.Coordinate{Latitude: 10.4, Longitude: -75.5}, cities[0].Coordinate)
}

func TestSearchCitiesLastQueryWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "cart" {
			once.Do(func() { close(started) })
			<-release
			fmt.Fprint(w, placeBody("Cartago", 4.7, -75.9))
			return
		}
		fmt.Fprint(w, placeBody("Cartagena", 10.4, -75.5))
	}))
	defer server.Close()

	s := newTestService(server.URL, server.URL, server.URL)

	stale := make(chan []types.CityCandidate, 1)
	go func() {
		stale <- s.SearchCities(context.Background(), "cart")
	}()
	<-started

	// A newer keystroke arrives while the first lookup is still in flight.
	fresh := s.SearchCities(context.Background(), "cartagena")
	require.Len(t, fresh, 1)
	assert.Equal(t, "Cartagena", fresh[0].Name)

	close(release)
	assert.Empty(t, <-stale, "superseded query must discard its late result")
}
