package services

import "time"

// Clock stamps created_at/updated_at values.
type Clock interface {
	Now() time.Time
}

// SystemClock reads wall time in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock loads the named zone, falling back to UTC if it is unknown.
func NewSystemClock(tz string) SystemClock {
	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		loc = time.UTC
	}
	return SystemClock{Location: loc}
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
