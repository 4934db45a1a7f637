package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Interval is a kline timeframe in the exchange's notation, "15m" or "4h".
type Interval string

var (
	Interval1m  = Interval("1m")
	Interval5m  = Interval("5m")
	Interval15m = Interval("15m")
	Interval30m = Interval("30m")
	Interval1h  = Interval("1h")
	Interval2h  = Interval("2h")
	Interval4h  = Interval("4h")
	Interval6h  = Interval("6h")
	Interval12h = Interval("12h")
	Interval1d  = Interval("1d")
	Interval3d  = Interval("3d")
	Interval1w  = Interval("1w")
)

// SupportedIntervals maps every accepted interval to its length in minutes.
var SupportedIntervals = map[Interval]int{
	Interval1m:  1,
	Interval5m:  5,
	Interval15m: 15,
	Interval30m: 30,
	Interval1h:  60,
	Interval2h:  60 * 2,
	Interval4h:  60 * 4,
	Interval6h:  60 * 6,
	Interval12h: 60 * 12,
	Interval1d:  60 * 24,
	Interval3d:  60 * 24 * 3,
	Interval1w:  60 * 24 * 7,
}

// ParseInterval checks the given string against the supported kline intervals.
func ParseInterval(s string) (Interval, error) {
	i := Interval(s)
	if _, ok := SupportedIntervals[i]; !ok {
		return "", errors.Errorf("unsupported interval: %q", s)
	}

	return i, nil
}

func (i Interval) Minutes() int {
	return SupportedIntervals[i]
}

func (i Interval) Duration() time.Duration {
	return time.Duration(i.Minutes()) * time.Minute
}

func (i Interval) String() string {
	return string(i)
}

func (i *Interval) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	*i = Interval(s)
	return nil
}

type IntervalSlice []Interval

func (s IntervalSlice) StringSlice() []string {
	out := make([]string, 0, len(s))
	for _, interval := range s {
		out = append(out, interval.String())
	}

	return out
}

// IntervalWindow pairs a kline interval with an indicator window size.
type IntervalWindow struct {
	Interval Interval `json:"interval"`

	Window int `json:"window"`
}

func (iw IntervalWindow) String() string {
	return fmt.Sprintf("%s (%d)", iw.Interval, iw.Window)
}
