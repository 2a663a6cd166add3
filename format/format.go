package format

import "fmt"

const (
	thousand = 1000
	million  = thousand * 1000
	billion  = million * 1000
)

// HumanNumber abbreviates a count such as a number of merges or token ids.
func HumanNumber(n int) string {
	if n < 0 {
		// negate in uint64 so math.MinInt does not overflow
		return "-" + humanUnsigned(-uint64(n))
	}
	return humanUnsigned(uint64(n))
}

func humanUnsigned(n uint64) string {
	switch {
	case n >= billion:
		return decimalPlace(float64(n)/billion) + "B"
	case n >= million:
		return decimalPlace(float64(n)/million) + "M"
	case n >= thousand:
		return decimalPlace(float64(n)/thousand) + "K"
	default:
		return fmt.Sprintf("%d", n)
	}
}

func decimalPlace(number float64) string {
	switch {
	case number >= 100:
		return fmt.Sprintf("%.0f", number)
	case number >= 10:
		return fmt.Sprintf("%.1f", number)
	default:
		return fmt.Sprintf("%.2f", number)
	}
}
