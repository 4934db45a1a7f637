package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKLineWindowCloses(t *testing.T) {
	window := KLineWindow{
		{Symbol: "BTCUSDT", Interval: Interval1h, Close: 100.0},
		{Symbol: "BTCUSDT", Interval: Interval1h, Close: 101.5},
		{Symbol: "BTCUSDT", Interval: Interval1h, Close: 99.25},
	}

	closes := window.Closes()
	assert.Equal(t, 3, closes.Length())
	assert.Equal(t, 99.25, closes.Last(0))
	assert.Equal(t, 101.5, closes.Max())
}
