package util

import (
	"math"
	"strconv"

	log "github.com/sirupsen/logrus"
)

var pow10Table = [...]float64{
	1, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9,
	1e10, 1e11, 1e12, 1e13, 1e14, 1e15, 1e16, 1e17, 1e18,
}

// RoundTo rounds val to prec decimal places. Precisions outside the
// table return val unchanged.
func RoundTo(val float64, prec int) float64 {
	if prec < 0 || prec >= len(pow10Table) {
		return val
	}

	p := pow10Table[prec]
	return math.Round(val*p) / p
}

// FormatFloat renders val with a fixed number of decimals.
func FormatFloat(val float64, prec int) string {
	return strconv.FormatFloat(val, 'f', prec, 64)
}

// MustParseFloat parses the decimal strings the exchange sends for
// prices and volumes. Anything unparsable is a protocol error.
func MustParseFloat(s string) float64 {
	if len(s) == 0 {
		return 0.0
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.WithError(err).Panicf("can not parse float: %s", s)
	}
	return v
}
