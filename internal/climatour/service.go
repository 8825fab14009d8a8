// Package climatour wires the trip-creation pipeline and its persistence
// workflow behind a small HTTP surface.
package climatour

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/climatour/climatour-service/internal/aiplanner"
	"github.com/climatour/climatour-service/internal/backend"
	"github.com/climatour/climatour-service/internal/common"
	"github.com/climatour/climatour-service/internal/meteostat"
	"github.com/climatour/climatour-service/internal/nominatim"
	"github.com/climatour/climatour-service/internal/predictor"
	"github.com/climatour/climatour-service/internal/session"
	t "github.com/climatour/climatour-service/internal/types"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type CodeError struct {
	code int
	msg  string
}

func (c CodeError) Error() string {
	return c.msg
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

type Service struct {
	geo     *nominatim.Client
	weather *meteostat.Client
	pred    *predictor.Client
	planner *aiplanner.Client
	store   *backend.Client

	rc           *redis.Client
	disableRedis bool
	addr         string

	// Last issued autocomplete sequence number; responses to older
	// sequences are discarded. Accessed atomically.
	searchSeq uint64

	Logger *zap.SugaredLogger
}

func New() *Service {
	s := &Service{}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	s.Logger = baseLogger.Sugar()

	s.geo = nominatim.New(
		nominatim.BaseUrlOption(envOr("nominatim_baseurl", "https://nominatim.openstreetmap.org")),
		nominatim.LoggerOption(s.Logger),
	)

	s.weather = meteostat.New(
		meteostat.ApiKeyOption(os.Getenv("meteostat_apikey")),
		meteostat.ApiHostOption(envOr("meteostat_apihost", "meteostat.p.rapidapi.com")),
		meteostat.BaseUrlOption(envOr("meteostat_baseurl", "https://meteostat.p.rapidapi.com")),
		meteostat.LoggerOption(s.Logger),
	)

	backendUrl := envOr("backend_baseurl", backend.DefaultBaseUrl)
	s.pred = predictor.New(
		predictor.BaseUrlOption(backendUrl),
	)
	s.planner = aiplanner.New(
		aiplanner.BaseUrlOption(backendUrl),
	)
	s.store = backend.New(
		backend.BaseUrlOption(backendUrl),
		backend.LoggerOption(s.Logger),
	)

	s.rc = redis.NewClient(&redis.Options{
		Addr: os.Getenv("redis_address"),
	})

	disableRedis, err := strconv.ParseBool(os.Getenv("disable_redis"))
	if err == nil {
		s.disableRedis = disableRedis
	}

	s.addr = envOr("listen_address", ":8080")

	return s
}

func (s *Service) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/cities", s.CitiesHandler)
	mux.HandleFunc("/trip", s.TripHandler)
	mux.HandleFunc("/trip/save", s.SaveHandler)
	mux.HandleFunc("/itineraries", s.ItinerariesHandler)
	mux.HandleFunc("/itinerary", s.ItineraryHandler)
	mux.HandleFunc("/activity", s.ActivityHandler)

	_ = http.ListenAndServe(s.addr, mux)
}

func (s *Service) CitiesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	cities := s.SearchCities(r.Context(), query)
	s.writeResponse(w, struct {
		Cities []t.CityCandidate `json:"cities"`
	}{Cities: cities})
}

func (s *Service) TripHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, CodeError{code: 405, msg: "Method not allowed"})
		return
	}
	var req TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, CodeError{code: 400, msg: "Invalid request body"})
		return
	}
	result, err := s.CreateTrip(r.Context(), req, sessionFromRequest(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, result)
}

func (s *Service) SaveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, CodeError{code: 405, msg: "Method not allowed"})
		return
	}
	var req struct {
		Itinerary  t.ItineraryDraft  `json:"itinerary"`
		Activities []t.ActivityDraft `json:"activities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, CodeError{code: 400, msg: "Invalid request body"})
		return
	}
	res, err := s.store.SaveCompleteItinerary(r.Context(), sessionFromRequest(r), req.Itinerary, req.Activities)
	if err != nil {
		s.Logger.Errorw("error saving complete itinerary",
			"city", req.Itinerary.City, "error", err.Error())
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, res)
}

func (s *Service) ItinerariesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, CodeError{code: 405, msg: "Method not allowed"})
		return
	}
	itins, err := s.store.GetItineraries(r.Context(), sessionFromRequest(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, itins)
}

func (s *Service) ItineraryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess := sessionFromRequest(r)
	switch r.Method {
	case http.MethodGet:
		if withActivities, _ := strconv.ParseBool(r.URL.Query().Get("activities")); withActivities {
			itin, acts, err := s.store.GetItineraryWithActivities(r.Context(), sess, id)
			if err != nil {
				s.writeError(w, err)
				return
			}
			s.writeResponse(w, struct {
				Itinerary  *t.Itinerary `json:"itinerary"`
				Activities []t.Activity `json:"activities"`
			}{Itinerary: itin, Activities: acts})
			return
		}
		itin, err := s.store.GetItineraryById(r.Context(), sess, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, itin)
	case http.MethodPut:
		var update t.ItineraryUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			s.writeError(w, CodeError{code: 400, msg: "Invalid request body"})
			return
		}
		itin, err := s.store.UpdateItinerary(r.Context(), sess, id, update)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, itin)
	case http.MethodDelete:
		if err := s.store.DeleteItinerary(r.Context(), sess, id); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, struct{}{})
	default:
		s.writeError(w, CodeError{code: 405, msg: "Method not allowed"})
	}
}

func (s *Service) ActivityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess := sessionFromRequest(r)
	switch r.Method {
	case http.MethodPut:
		var update t.ActivityUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			s.writeError(w, CodeError{code: 400, msg: "Invalid request body"})
			return
		}
		act, err := s.store.UpdateActivity(r.Context(), sess, id, update)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, act)
	case http.MethodDelete:
		if err := s.store.DeleteActivity(r.Context(), sess, id); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeResponse(w, struct{}{})
	default:
		s.writeError(w, CodeError{code: 405, msg: "Method not allowed"})
	}
}

func sessionFromRequest(r *http.Request) *session.Session {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil
	}
	return &session.Session{Source: session.Static(strings.TrimPrefix(auth, "Bearer "))}
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		return 0, CodeError{code: 400, msg: "Missing or invalid 'id' query parameter in request"}
	}
	return id, nil
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	var codeErr CodeError
	var tripErr *TripError
	var apiErr common.APIError
	switch {
	case errors.As(err, &codeErr):
		s.writeErrorBody(w, codeErr.code, errorResponse{Error: codeErr.msg})
	case errors.As(err, &tripErr):
		code := 502
		if tripErr.Stage == StageValidation {
			code = 400
		}
		s.writeErrorBody(w, code, errorResponse{Error: tripErr.Err.Error(), Stage: string(tripErr.Stage)})
	case errors.As(err, &apiErr):
		s.writeErrorBody(w, apiErr.Status, errorResponse{Error: apiErr.Message})
	default:
		w.WriteHeader(500)
		io.WriteString(w, "Internal server error")
	}
}

func (s *Service) writeErrorBody(w http.ResponseWriter, code int, resp errorResponse) {
	bodyBytes, _ := json.Marshal(resp)
	w.WriteHeader(code)
	io.WriteString(w, string(bodyBytes[:]))
}

func (s *Service) writeResponse(w http.ResponseWriter, resp interface{}) {
	bodyBytes, _ := json.Marshal(resp)
	w.WriteHeader(200)
	io.WriteString(w, string(bodyBytes[:]))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// today is the local calendar date the pipeline fetches weather for.
func today() string {
	return time.Now().Format("2006-01-02")
}
