package messages

import (
	"strconv"
	"strings"
	"time"

	"gateway-stream/src/helpers"
)

// EndDateLayout is the gateway's textual timestamp layout, always followed by " UTC".
const EndDateLayout = "20060102 15:04:05"

// EncodeTimestamp renders t normalized to UTC with a trailing UTC marker.
// nil encodes as the empty field.
func EncodeTimestamp(t *time.Time) (string, error) {
	if t == nil {
		return "", nil
	}
	if t.IsZero() {
		return "", helpers.NewEncodingError("timestamp is the zero time")
	}
	utc := t.UTC()
	if utc.Year() < 0 || utc.Year() > 9999 {
		return "", helpers.NewEncodingError("timestamp year %d cannot be encoded", utc.Year())
	}
	return utc.Format(EndDateLayout) + " UTC", nil
}

// ParseTimestamp reads a timestamp field. Accepted forms are epoch seconds,
// a bare date ("20230410", midnight UTC) and "20060102 15:04:05" optionally
// followed by a zone name; without a zone the time is taken as UTC.
func ParseTimestamp(field string) (time.Time, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return time.Time{}, helpers.NewParseError(nil, "empty timestamp")
	}

	if len(field) == 8 {
		if t, err := time.ParseInLocation("20060102", field, time.UTC); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(field, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}

	// "20230410 09:30:00 US/Eastern" or "20230410-09:30:00"
	normalized := field
	if len(field) > 8 && field[8] == '-' {
		normalized = field[:8] + " " + field[9:]
	}
	parts := strings.Fields(normalized)
	if len(parts) < 2 {
		return time.Time{}, helpers.NewParseError(nil, "unrecognized timestamp %q", field)
	}
	loc := time.UTC
	if len(parts) > 2 {
		zone, err := time.LoadLocation(parts[2])
		if err != nil {
			return time.Time{}, helpers.NewParseError(err, "unknown time zone in %q", field)
		}
		loc = zone
	}
	t, err := time.ParseInLocation(EndDateLayout, parts[0]+" "+parts[1], loc)
	if err != nil {
		return time.Time{}, helpers.NewParseError(err, "unrecognized timestamp %q", field)
	}
	return t, nil
}
