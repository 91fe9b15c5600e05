package idempotency

import (
	"fmt"
	"net/http"
	"time"
)

var headerTimeLayouts = []string{time.RFC1123Z, time.RFC1123, time.RFC850, time.ANSIC}

// ParseHeaderTime parses an HTTP Date header, keeping its offset.
func ParseHeaderTime(value string) (time.Time, error) {
	for _, layout := range headerTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date header %q, expected %s", value, http.TimeFormat)
}

// parseCreatedTime accepts the stored ISO-8601 form and, for entries written by older
// gateways, the raw header form.
func parseCreatedTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return ParseHeaderTime(value)
}

// withinWindow reports whether at most allowedHours whole hours separate createdTime and now.
// now is the server clock; it is read in the entry's offset.
// An entry without a creation time is always within the window.
func withinWindow(createdTime string, now time.Time, allowedHours int) (bool, error) {
	if createdTime == "" {
		return true, nil
	}
	if allowedHours <= 0 {
		return false, nil
	}

	created, err := parseCreatedTime(createdTime)
	if err != nil {
		return false, err
	}
	elapsed := now.In(created.Location()).Sub(created)
	return int64(elapsed/time.Hour) <= int64(allowedHours), nil
}
