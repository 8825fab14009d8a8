package common

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
)

// APIError is a non-2xx response from one of the owned backends, carrying the
// backend-supplied message when one was present in the body.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	return e.Message
}

type errorBody struct {
	Error   string `json:"error"`
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// DecodeError translates a non-2xx response into an APIError. The owned
// backends put their message under "error", "detail" or "message"; anything
// else gets a generic status message.
func DecodeError(name string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		for _, msg := range []string{eb.Error, eb.Detail, eb.Message} {
			if msg != "" {
				return APIError{Status: resp.StatusCode, Message: msg}
			}
		}
	}
	return APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("error code %d returned from %s", resp.StatusCode, name),
	}
}

// Round rounds v to the given number of decimal places.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
