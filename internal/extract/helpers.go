package extract

import "strconv"

// trimFloat renders a parsed amount without trailing zeros ("10000", "2.5").
func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
