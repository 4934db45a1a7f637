package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStochasticK(t *testing.T) {
	rsi := []*float64{nil, nil, newFloat(10), newFloat(20), newFloat(30), newFloat(25), newFloat(15)}

	values := StochasticK(rsi, 3)
	assert.Equal(t, len(rsi), len(values))

	// the first window fully backed by readings ends at index 4
	for i := 0; i < 4; i++ {
		assert.Nil(t, values[i], "index %d", i)
	}

	if assert.NotNil(t, values[4]) {
		assert.InDelta(t, 100.0, *values[4], Delta)
	}
	if assert.NotNil(t, values[5]) {
		assert.InDelta(t, 50.0, *values[5], Delta)
	}
	if assert.NotNil(t, values[6]) {
		assert.InDelta(t, 0.0, *values[6], Delta)
	}
}

func TestStochasticKFlatWindow(t *testing.T) {
	rsi := []*float64{newFloat(70), newFloat(70), newFloat(70), newFloat(70)}

	values := StochasticK(rsi, 3)
	assert.Nil(t, values[0])
	assert.Nil(t, values[1])
	if assert.NotNil(t, values[2]) {
		assert.Equal(t, 50.0, *values[2], "a flat window has no range, the midpoint is reported")
	}
	if assert.NotNil(t, values[3]) {
		assert.Equal(t, 50.0, *values[3])
	}
}

func TestStochasticKSparseWindow(t *testing.T) {
	rsi := []*float64{newFloat(10), nil, newFloat(20), newFloat(30), newFloat(40)}

	values := StochasticK(rsi, 3)

	// windows that still contain the gap stay nil, later ones recover
	assert.Nil(t, values[2])
	assert.Nil(t, values[3])
	if assert.NotNil(t, values[4]) {
		assert.InDelta(t, 100.0, *values[4], Delta)
	}
}

func TestStochasticKEmpty(t *testing.T) {
	assert.Empty(t, StochasticK(nil, 14))
	assert.Len(t, StochasticK([]*float64{nil, nil}, 14), 2)
}
