package climatour

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	t "github.com/climatour/climatour-service/internal/types"
	"github.com/go-redis/redis/v8"
)

const searchCacheTTL = 24 * time.Hour

// SearchCities resolves an autocomplete query to city candidates. Each call
// supersedes any in-flight one: results arriving for a stale sequence number
// are discarded so a fast keystroke never paints old suggestions over new
// ones. Lookups are best-effort and never fail; geocoder results are cached
// in redis since city queries repeat heavily across users.
func (s *Service) SearchCities(ctx context.Context, query string) []t.CityCandidate {
	if utf8.RuneCountInString(query) <= 2 {
		return nil
	}
	seq := atomic.AddUint64(&s.searchSeq, 1)

	if cities, ok := s.cachedCities(ctx, query); ok {
		return cities
	}

	cities := s.geo.Search(ctx, query)
	if atomic.LoadUint64(&s.searchSeq) != seq {
		// A newer query was issued while this one was in flight.
		return nil
	}

	s.cacheCities(ctx, query, cities)
	return cities
}

func searchCacheKey(query string) string {
	return "cities:" + strings.ToLower(strings.TrimSpace(query))
}

func (s *Service) cachedCities(ctx context.Context, query string) ([]t.CityCandidate, bool) {
	if s.disableRedis {
		return nil, false
	}
	val, err := s.rc.Get(ctx, searchCacheKey(query)).Result()
	if err != nil {
		if err != redis.Nil {
			s.Logger.Warnf("redis error fetching cached cities for %q: %s", query, err.Error())
		}
		return nil, false
	}
	var cities []t.CityCandidate
	if err := json.Unmarshal([]byte(val), &cities); err != nil {
		s.Logger.Warnf("error unmarshalling cached cities for %q: %s", query, err.Error())
		return nil, false
	}
	return cities, true
}

func (s *Service) cacheCities(ctx context.Context, query string, cities []t.CityCandidate) {
	if s.disableRedis || len(cities) == 0 {
		return
	}
	bodyBytes, err := json.Marshal(cities)
	if err != nil {
		return
	}
	if err := s.rc.Set(ctx, searchCacheKey(query), bodyBytes, searchCacheTTL).Err(); err != nil {
		s.Logger.Warnf("redis error caching cities for %q: %s", query, err.Error())
	}
}
