package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type errorBody struct {
	Error string `json:"error"`
}

// JSONError writes {"error": message} with the given status code.
func JSONError(w http.ResponseWriter, status int, message string) {
	_ = JSONWrite(w, status, errorBody{Error: message})
}

// JSONWrite writes v as a JSON response body. A zero status leaves the
// default 200 in place.
func JSONWrite(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	return json.NewEncoder(w).Encode(v)
}

// ReadableTime renders a duration as a compact "1d2h3m4s" string, largest
// unit first, omitting empty units. Durations under a second render "0s".
func ReadableTime(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs <= 0 {
		return "0s"
	}
	var b strings.Builder
	periods := []struct {
		name string
		secs int64
	}{{"d", 86400}, {"h", 3600}, {"m", 60}, {"s", 1}}
	for _, p := range periods {
		if secs >= p.secs {
			fmt.Fprintf(&b, "%d%s", secs/p.secs, p.name)
			secs %= p.secs
		}
	}
	return b.String()
}
