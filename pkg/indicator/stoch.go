package indicator

/*
stoch implements the stochastic transform over a series of RSI readings

Stochastic Oscillator
- https://www.investopedia.com/terms/s/stochasticoscillator.asp
*/

// StochasticK positions each RSI reading inside the range of its trailing
// window of period readings, scaled to 0..100. A window that does not yet
// hold period readings yields nil. When the window is flat the position is
// undefined and the midpoint 50 is reported instead.
func StochasticK(rsi []*float64, period int) []*float64 {
	values := make([]*float64, len(rsi))
	for i := period - 1; i < len(rsi); i++ {
		window := make([]float64, 0, period)
		for j := i - period + 1; j <= i; j++ {
			if rsi[j] != nil {
				window = append(window, *rsi[j])
			}
		}

		if len(window) < period {
			continue
		}

		lowest, highest := window[0], window[0]
		for _, v := range window[1:] {
			if v < lowest {
				lowest = v
			}
			if v > highest {
				highest = v
			}
		}

		if highest == lowest {
			values[i] = newFloat(50.0)
		} else {
			values[i] = newFloat((*rsi[i] - lowest) / (highest - lowest) * 100.0)
		}
	}

	return values
}
