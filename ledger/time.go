package ledger

import (
	"encoding/json"
	"time"
)

// =============================================================================
// TIME POINT - Wall-clock instants for audit attribution
// =============================================================================

type TimePoint struct {
	Time time.Time
}

func Now() TimePoint { return TimePoint{Time: time.Now().UTC()} }

func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (tp TimePoint) Before(other TimePoint) bool { return tp.Time.Before(other.Time) }
func (tp TimePoint) After(other TimePoint) bool  { return tp.Time.After(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool  { return tp.Time.Equal(other.Time) }
func (tp TimePoint) IsZero() bool                { return tp.Time.IsZero() }

func (tp TimePoint) String() string { return tp.Time.Format(time.RFC3339) }

func (tp TimePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(tp.String())
}

func (tp *TimePoint) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		tp.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	tp.Time = t
	return nil
}

// DateLabel is the operator-facing form of the instant, stored alongside
// the raw timestamp on audit entries.
func (tp TimePoint) DateLabel() string { return tp.Time.Format("02 Jan 2006, 03:04 PM") }

// =============================================================================
// DATE UTILITIES
// =============================================================================

// DateLayout is the wire format for all date-valued ledger fields.
const DateLayout = "2006-01-02"

func ParseDate(s string) (time.Time, error) { return time.Parse(DateLayout, s) }

// InclusiveDays counts days in [start, end] including both endpoints.
// Worker assignments bill the first and last day of service.
func InclusiveDays(start, end string) (int, error) {
	from, err := ParseDate(start)
	if err != nil {
		return 0, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return 0, err
	}
	if to.Before(from) {
		return 0, ErrInvalidDateRange
	}
	return int(to.Sub(from).Hours()/24) + 1, nil
}
