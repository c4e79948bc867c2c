package timeutil

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"
)

// RFC3339Micros is RFC 3339 UTC with fixed microsecond precision.
// Use this format for log timestamps where higher precision is needed.
const RFC3339Micros = "2006-01-02T15:04:05.000000Z"

// DateTimeMillis is the layout of response datetimes: YYYY-MM-DD HH:mm:ss.SSS.
const DateTimeMillis = "2006-01-02 15:04:05.000"

// DefaultTimezone is used when no timezone is configured.
const DefaultTimezone = "Asia/Jakarta"

// Clock returns the current time. Tests replace it with a frozen clock.
type Clock func() time.Time

// Frozen returns a clock that always reports t.
func Frozen(t time.Time) Clock {
	return func() time.Time { return t }
}

var locations sync.Map // map[string]*time.Location

// Location resolves an IANA timezone name, caching the result. An empty name
// resolves to DefaultTimezone.
func Location(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	if loc, ok := locations.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", name, err)
	}
	actual, _ := locations.LoadOrStore(name, loc)
	return actual.(*time.Location), nil
}

// Format renders t with DateTimeMillis in the named timezone.
func Format(t time.Time, timezone string) (string, error) {
	loc, err := Location(timezone)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(DateTimeMillis), nil
}
