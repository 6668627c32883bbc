package model

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// TimeOfDay is a wall-clock time without a date, persisted as "HH:MM:SS".
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

var DefaultScheduleTime = TimeOfDay{Hour: 12}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}

	return TimeOfDay{}, fmt.Errorf("invalid time of day %q, expected HH:MM[:SS]", s)
}

func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Offset is the time elapsed since midnight.
func (t TimeOfDay) Offset() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second
}

// Matches reports whether now falls in the same hour and minute as t.
func (t TimeOfDay) Matches(now time.Time) bool {
	return now.Hour() == t.Hour && now.Minute() == t.Minute
}

// Until returns the signed distance from now's time of day to t, normalized
// into (-12h, 12h] so that a target just past midnight counts as near.
func (t TimeOfDay) Until(now time.Time) time.Duration {
	diff := t.Offset() - TimeOfDayOf(now).Offset()
	switch {
	case diff > day/2:
		diff -= day
	case diff <= -day/2:
		diff += day
	}

	return diff
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}
