package nominatim

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchShortQuerySkipsNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	c := New(BaseUrlOption(server.URL))

	// "mü" and "東京" are two characters but more than two bytes; the
	// short-circuit counts characters.
	for _, query := range []string{"", "c", "ca", "mü", "東京"} {
		assert.Empty(t, c.Search(context.Background(), query))
	}
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestSearchDeduplicatesAndRewritesDisplayName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cartagena", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `[
			{"lat": "10.4", "lon": "-75.5", "display_name": "Cartagena, Bolívar, Caribe, Colombia"},
			{"lat": "10.4", "lon": "-75.5", "display_name": "Cartagena de Indias, Bolívar, Colombia"},
			{"lat": "37.6", "lon": "-0.98", "display_name": "Cartagena, Murcia,  Spain"}
		]`)
	}))
	defer server.Close()

	c := New(BaseUrlOption(server.URL))
	cities := c.Search(context.Background(), "cartagena")

	require.Len(t, cities, 2)
	assert.Equal(t, "Cartagena", cities[0].Name)
	assert.Equal(t, "Cartagena, Colombia", cities[0].DisplayName)
	assert.Equal(t, 10.4, cities[0].Coordinate.Latitude)
	assert.Equal(t, -75.5, cities[0].Coordinate.Longitude)
	assert.Equal(t, "Cartagena, Spain", cities[1].DisplayName)
}

func TestSearchSkipsUnparsableCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"lat": "not-a-number", "lon": "-75.5", "display_name": "Nowhere, Atlantis"},
			{"lat": "10.4", "lon": "-75.5", "display_name": "Cartagena, Colombia"}
		]`)
	}))
	defer server.Close()

	c := New(BaseUrlOption(server.URL))
	cities := c.Search(context.Background(), "cartagena")

	require.Len(t, cities, 1)
	assert.Equal(t, "Cartagena", cities[0].Name)
}

func TestSearchProviderFailureYieldsEmpty(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(500)
		}))
		defer server.Close()

		c := New(BaseUrlOption(server.URL))
		assert.Empty(t, c.Search(context.Background(), "cartagena"))
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"unexpected": "object"}`)
		}))
		defer server.Close()

		c := New(BaseUrlOption(server.URL))
		assert.Empty(t, c.Search(context.Background(), "cartagena"))
	})

	t.Run("unreachable provider", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		c := New(BaseUrlOption(server.URL))
		assert.Empty(t, c.Search(context.Background(), "cartagena"))
	})
}
