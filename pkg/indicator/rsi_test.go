package indicator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_calculateRSI(t *testing.T) {
	// test case from https://school.stockcharts.com/doku.php?id=technical_indicators:relative_strength_index_rsi
	var data = []byte(`[44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00, 46.03, 46.41, 46.22, 45.64, 46.21, 46.25, 45.71, 46.45, 45.78, 45.35, 44.03, 44.18, 44.22, 44.57, 43.42, 42.66, 43.13]`)
	var closes []float64
	err := json.Unmarshal(data, &closes)
	require.NoError(t, err)

	tests := []struct {
		name   string
		closes []float64
		window int
		want   []float64
	}{
		{
			name:   "RSI",
			closes: closes,
			window: 14,
			want: []float64{
				70.46413502109704,
				66.24961855355505,
				66.48094183471265,
				69.34685316290864,
				66.29471265892624,
				57.91502067008556,
				62.88071830996241,
				63.208788718287764,
				56.01158478954758,
				62.33992931089789,
				54.67097137765515,
				50.386815195114224,
				40.01942379131357,
				41.49263540422282,
				41.902429678458105,
				45.499497238680405,
				37.32277831337995,
				33.090482572723396,
				37.78877198205783,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := RSI(tt.closes, tt.window)
			assert.Equal(t, len(tt.closes), len(values))

			for i := 0; i < tt.window; i++ {
				assert.Nil(t, values[i], "index %d is inside the warm-up period", i)
			}

			for i, want := range tt.want {
				idx := tt.window + i
				if assert.NotNil(t, values[idx], "index %d", idx) {
					assert.InDelta(t, want, *values[idx], Delta)
				}
			}
		})
	}
}

func TestRSIShortInput(t *testing.T) {
	for _, closes := range [][]float64{
		nil,
		{},
		{44.34},
		{44.34, 44.09, 44.15},
	} {
		values := RSI(closes, 14)
		assert.Equal(t, len(closes), len(values))
		for i, v := range values {
			assert.Nil(t, v, "index %d", i)
		}
	}
}

func TestRSIFlatSeries(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 42.0
	}

	values := RSI(closes, 14)
	for i := 0; i < 14; i++ {
		assert.Nil(t, values[i])
	}
	for i := 14; i < len(values); i++ {
		if assert.NotNil(t, values[i]) {
			assert.Equal(t, 0.0, *values[i], "flat series has no gains, index %d", i)
		}
	}
}

func TestRSIAllGains(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	values := RSI(closes, 2)
	for i := 2; i < len(values); i++ {
		if assert.NotNil(t, values[i]) {
			assert.Equal(t, 100.0, *values[i], "zero average loss saturates the index")
		}
	}
}

func TestRSISmallPeriod(t *testing.T) {
	closes := []float64{10.0, 11.0, 10.5, 11.5, 12.0, 11.0, 12.5, 13.0}
	want := []float64{80.0, 84.6153846154, 50.0, 73.9644970414, 78.9976133652}

	values := RSI(closes, 3)
	for i := 0; i < 3; i++ {
		assert.Nil(t, values[i])
	}
	for i, w := range want {
		idx := 3 + i
		if assert.NotNil(t, values[idx]) {
			assert.InDelta(t, w, *values[idx], Delta)
		}
	}
}
