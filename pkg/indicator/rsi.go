package indicator

/*
rsi implements Relative Strength Index (RSI) with Wilder smoothing

https://www.investopedia.com/terms/r/rsi.asp
*/

// RSI computes the index over the whole closes series. The result keeps
// the input alignment: values[i] belongs to closes[i] and stays nil until
// index period, the first one that has a full seed window behind it.
//
// The seed averages are the plain means of the first period gains and
// losses, every later average is Wilder smoothed:
//
//	avg = (avg*(period-1) + current) / period
//
// When the average loss reaches zero the index saturates at 100, or 0 if
// there were no gains either (a flat series).
func RSI(closes []float64, period int) []*float64 {
	values := make([]*float64, len(closes))
	if len(closes) < period+1 {
		return values
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	values[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i-1]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i-1]) / float64(period)
		values[i] = rsiFromAverages(avgGain, avgLoss)
	}

	return values
}

func rsiFromAverages(avgGain, avgLoss float64) *float64 {
	if avgLoss == 0 {
		if avgGain > 0 {
			return newFloat(100.0)
		}
		return newFloat(0.0)
	}

	rs := avgGain / avgLoss
	return newFloat(100.0 - 100.0/(1.0+rs))
}
