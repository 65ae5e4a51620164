package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// parseDateRange reads from/to query params (YYYY-MM-DD) and returns
// inclusive day bounds. Missing params default to today.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	now := time.Now()

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if from != "" {
		d, err := time.ParseInLocation(layout, from, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date: %w", err)
		}
		start = d
	}

	end := start
	if to != "" {
		d, err := time.ParseInLocation(layout, to, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date: %w", err)
		}
		end = d
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("to date precedes from date")
	}

	// End of the last day, inclusive.
	end = end.Add(24*time.Hour - time.Nanosecond)
	return start, end, nil
}
