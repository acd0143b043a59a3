package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"brewtracker/internal/modules/fermentation/types"
	"brewtracker/internal/units"
)

const (
	defaultHistoryRangeKey = "7d"
	historyPageSize        = 20
	defaultLimit           = 100
	maxLimit               = 1000
)

type historyRange struct {
	Duration time.Duration
	Label    string
}

// Fermentations run for days, so history starts at a day.
var historyRanges = map[string]historyRange{
	"24h": {Duration: 24 * time.Hour, Label: "Last 24 hours"},
	"3d":  {Duration: 3 * 24 * time.Hour, Label: "Last 3 days"},
	"7d":  {Duration: 7 * 24 * time.Hour, Label: "Last 7 days"},
	"14d": {Duration: 14 * 24 * time.Hour, Label: "Last 14 days"},
	"30d": {Duration: 30 * 24 * time.Hour, Label: "Last 30 days"},
}

func parseReadingsQuery(r *http.Request) (from time.Time, to time.Time, limit int, err error) {
	q := r.URL.Query()

	if s := q.Get("from"); s != "" {
		from, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, time.Time{}, 0, errors.New("invalid 'from' (expected RFC3339)")
		}
	}
	if s := q.Get("to"); s != "" {
		to, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, time.Time{}, 0, errors.New("invalid 'to' (expected RFC3339)")
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, 0, errors.New("'from' must be <= 'to'")
	}

	limit, err = parseLimit(q.Get("limit"))
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	return from, to, limit, nil
}

func parseLatestQuery(r *http.Request) (limit int, err error) {
	return parseLimit(r.URL.Query().Get("limit"))
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'limit' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'limit' must be > 0")
	}
	if n > maxLimit {
		return 0, errors.New("'limit' must be <= 1000")
	}
	return n, nil
}

func parseSessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, errors.New("invalid session id (expected uuid)")
	}
	return id, nil
}

func parseStatusQuery(r *http.Request) (types.SessionStatus, error) {
	switch s := types.SessionStatus(strings.ToLower(r.URL.Query().Get("status"))); s {
	case "", types.StatusActive, types.StatusEnded:
		return s, nil
	default:
		return "", errors.New("invalid 'status' (expected active or ended)")
	}
}

type convertQuery struct {
	value    float64
	from, to string
}

func parseConvertQuery(r *http.Request) (convertQuery, error) {
	q := r.URL.Query()
	c := convertQuery{from: q.Get("from"), to: q.Get("to")}
	if c.from == "" || c.to == "" {
		return convertQuery{}, errors.New("'from' and 'to' units are required")
	}
	s := q.Get("value")
	if s == "" {
		return convertQuery{}, errors.New("'value' is required")
	}
	c.value = units.ParseNumber(s)
	if units.IsMissing(c.value) {
		return convertQuery{}, errors.New("invalid 'value' (expected number)")
	}
	return c, nil
}

func resolveHistoryRange(key string) (historyRange, bool) {
	if key == "" {
		return historyRanges[defaultHistoryRangeKey], true
	}
	info, ok := historyRanges[key]
	if ok {
		return info, true
	}
	return historyRanges[defaultHistoryRangeKey], false
}

// parseHistoryPage returns the 1-based page number from the request (default 1, min 1).
func parseHistoryPage(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
