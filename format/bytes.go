package format

import "fmt"

const (
	Byte     = 1
	KiloByte = Byte * 1000
	MegaByte = KiloByte * 1000
	GigaByte = MegaByte * 1000
)

// HumanBytes formats a byte count with decimal units, e.g. the size of a
// training corpus.
func HumanBytes(b int64) string {
	var value float64
	var unit string

	switch {
	case b >= GigaByte:
		value, unit = float64(b)/GigaByte, "GB"
	case b >= MegaByte:
		value, unit = float64(b)/MegaByte, "MB"
	case b >= KiloByte:
		value, unit = float64(b)/KiloByte, "KB"
	default:
		return fmt.Sprintf("%d B", b)
	}

	switch {
	case value >= 10:
		return fmt.Sprintf("%d %s", int(value), unit)
	case value != float64(int(value)):
		return fmt.Sprintf("%.1f %s", value, unit)
	default:
		return fmt.Sprintf("%d %s", int(value), unit)
	}
}
