package indicator

import "fmt"

/*
stochrsi implements Stochastic RSI

The pipeline applies the stochastic transform to an RSI series instead of
raw prices, then smooths the result twice: once into %K and once more
into %D.

https://www.investopedia.com/terms/s/stochrsi.asp
*/

const (
	DefaultRSILength   = 14
	DefaultStochLength = 14
	DefaultKSmooth     = 3
	DefaultDSmooth     = 3
)

// Config holds the window lengths of the four pipeline stages.
type Config struct {
	RSILength   int `json:"rsiLength" yaml:"rsiLength"`
	StochLength int `json:"stochLength" yaml:"stochLength"`
	KSmooth     int `json:"kSmooth" yaml:"kSmooth"`
	DSmooth     int `json:"dSmooth" yaml:"dSmooth"`
}

func DefaultConfig() Config {
	return Config{
		RSILength:   DefaultRSILength,
		StochLength: DefaultStochLength,
		KSmooth:     DefaultKSmooth,
		DSmooth:     DefaultDSmooth,
	}
}

func (c Config) Validate() error {
	if c.RSILength <= 0 {
		return fmt.Errorf("rsiLength must be positive, got %d", c.RSILength)
	}
	if c.StochLength <= 0 {
		return fmt.Errorf("stochLength must be positive, got %d", c.StochLength)
	}
	if c.KSmooth <= 0 {
		return fmt.Errorf("kSmooth must be positive, got %d", c.KSmooth)
	}
	if c.DSmooth <= 0 {
		return fmt.Errorf("dSmooth must be positive, got %d", c.DSmooth)
	}

	return nil
}

// MinInputLength is the shortest closes series Calculate runs the
// pipeline for. Shorter input returns all-nil values without touching
// the stages.
func (c Config) MinInputLength() int {
	return c.RSILength + c.StochLength + c.KSmooth + c.DSmooth - 2
}

// Value is one stochastic RSI reading. A field stays nil while its stage
// has not accumulated a full window yet; nil and 0 are different answers.
type Value struct {
	K   *float64 `json:"k"`
	D   *float64 `json:"d"`
	RSI *float64 `json:"rsi"`
}

// Valid reports whether both smoothed lines are available. RSI fills
// before the smoothed lines, so checking K and D suffices.
func (v Value) Valid() bool {
	return v.K != nil && v.D != nil
}

// Calculate runs closes through RSI, the stochastic transform and the two
// smoothing passes. The output is index aligned with the input:
// len(out) == len(closes) always, leading entries are nil until each
// stage has warmed up.
func Calculate(closes []float64, c Config) []Value {
	values := make([]Value, len(closes))
	if len(closes) < c.MinInputLength() {
		return values
	}

	rsi := RSI(closes, c.RSILength)
	stochK := StochasticK(rsi, c.StochLength)
	smoothedK := SMA(stochK, c.KSmooth)
	d := SMA(smoothedK, c.DSmooth)

	for i := range closes {
		values[i] = Value{K: smoothedK[i], D: d[i], RSI: rsi[i]}
	}

	return values
}

func newFloat(v float64) *float64 {
	return &v
}
