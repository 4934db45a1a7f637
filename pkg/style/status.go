package style

var OversoldEmoji = "🟢"
var OverboughtEmoji = "🔴"

// StatusEmoji marks oversold and overbought readings in table cells,
// neutral readings stay unmarked.
func StatusEmoji(status string) string {
	switch status {
	case "oversold":
		return OversoldEmoji
	case "overbought":
		return OverboughtEmoji
	}

	return ""
}
