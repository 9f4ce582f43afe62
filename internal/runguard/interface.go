package runguard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Week identifies an ISO 8601 calendar week. Year is zero for markers that
// only ever recorded the week number.
type Week struct {
	Year int
	Week int
}

// WeekOf returns the ISO week containing t
func WeekOf(t time.Time) Week {
	year, week := t.ISOWeek()
	return Week{Year: year, Week: week}
}

// Same reports whether w and other name the same week. A marker without a
// year matches on the week number alone.
func (w Week) Same(other Week) bool {
	if w.Year == 0 || other.Year == 0 {
		return w.Week == other.Week
	}

	return w == other
}

func (w Week) String() string {
	if w.Year == 0 {
		return strconv.Itoa(w.Week)
	}

	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}

// ParseWeek accepts "2026-W42" and the bare week number "42".
func ParseWeek(s string) (Week, error) {
	s = strings.TrimSpace(s)

	if year, week, ok := strings.Cut(s, "-W"); ok {
		y, err := strconv.Atoi(year)
		if err != nil {
			return Week{}, fmt.Errorf("invalid marker year %q: %w", year, err)
		}
		w, err := strconv.Atoi(week)
		if err != nil {
			return Week{}, fmt.Errorf("invalid marker week %q: %w", week, err)
		}
		return validWeek(Week{Year: y, Week: w})
	}

	w, err := strconv.Atoi(s)
	if err != nil {
		return Week{}, fmt.Errorf("invalid marker %q: %w", s, err)
	}

	return validWeek(Week{Week: w})
}

func validWeek(w Week) (Week, error) {
	if w.Week < 1 || w.Week > 53 {
		return Week{}, fmt.Errorf("week %d out of range", w.Week)
	}

	return w, nil
}

// MarkerStore persists the last executed week
type MarkerStore interface {
	// Load returns the stored week. found is false when no marker exists yet.
	Load(ctx context.Context) (week Week, found bool, err error)
	Save(ctx context.Context, week Week) error
	Close() error
}
