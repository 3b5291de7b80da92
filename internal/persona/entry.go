package persona

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the day-precision format used by the data feed.
const DateLayout = "2006-01-02"

// DayType distinguishes working days from weekends.
type DayType int

const (
	Weekday DayType = iota
	Weekend
)

func (d DayType) String() string {
	if d == Weekend {
		return "Weekend"
	}
	return "Weekday"
}

// ParseDayType accepts "Weekday" or "Weekend" (case-insensitive).
func ParseDayType(s string) (DayType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekday":
		return Weekday, nil
	case "weekend":
		return Weekend, nil
	}
	return Weekday, fmt.Errorf("%w: %q", ErrUnknownDayType, s)
}

// DayTypeOf derives the day type from the calendar.
func DayTypeOf(t time.Time) DayType {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	}
	return Weekday
}

// Entry is a single logged block of hours for one persona on one day.
// Several entries may share a date.
type Entry struct {
	Date    time.Time
	Persona Persona
	Hours   float64
	DayType DayType
}

// NewEntry builds an entry normalised to UTC midnight, deriving the day type from the date.
func NewEntry(date time.Time, p Persona, hours float64) Entry {
	d := Day(date)
	return Entry{Date: d, Persona: p, Hours: hours, DayType: DayTypeOf(d)}
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

type entryJSON struct {
	Date    string   `json:"date"`
	Persona string   `json:"persona"`
	Hours   *float64 `json:"hours"`
	DayType string   `json:"dayType,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	h := e.Hours
	return json.Marshal(entryJSON{
		Date:    e.Date.Format(DateLayout),
		Persona: e.Persona.Label(),
		Hours:   &h,
		DayType: e.DayType.String(),
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := ParseDate(raw.Date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", raw.Date, err)
	}
	p, err := Parse(raw.Persona)
	if err != nil {
		return err
	}
	if raw.Hours == nil {
		return fmt.Errorf("entry %s/%s has no hours", raw.Date, raw.Persona)
	}
	dt := DayTypeOf(date)
	if raw.DayType != "" {
		if dt, err = ParseDayType(raw.DayType); err != nil {
			return err
		}
	}
	*e = Entry{Date: date, Persona: p, Hours: *raw.Hours, DayType: dt}
	return nil
}

// Span returns the earliest and latest entry dates. ok is false for an empty slice.
func Span(entries []Entry) (first, last time.Time, ok bool) {
	for i, e := range entries {
		if i == 0 || e.Date.Before(first) {
			first = e.Date
		}
		if i == 0 || e.Date.After(last) {
			last = e.Date
		}
	}
	return first, last, len(entries) > 0
}

// Filter returns the entries belonging to p, preserving order.
func Filter(entries []Entry, p Persona) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Persona == p {
			out = append(out, e)
		}
	}
	return out
}
