package indicator

/*
sma implements Simple Moving Average (SMA) over nullable readings

https://www.investopedia.com/terms/s/sma.asp
*/

// SMA averages each trailing window of period positions. The window must
// be complete: any nil inside it makes the output nil, partial averages
// are never emitted.
func SMA(values []*float64, period int) []*float64 {
	out := make([]*float64, len(values))
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		complete := true
		for j := i - period + 1; j <= i; j++ {
			if values[j] == nil {
				complete = false
				break
			}
			sum += *values[j]
		}

		if complete {
			out[i] = newFloat(sum / float64(period))
		}
	}

	return out
}
