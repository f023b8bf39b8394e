package encoder

import (
	"fmt"
	"regexp"
	"strconv"
)

var numberRe = regexp.MustCompile(`\d+\.?\d*`)

// ParseTemperature extracts the first number from free text such as "39.5°C".
func ParseTemperature(s string) (float64, error) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, fmt.Errorf("encoder: no temperature in %q", s)
	}
	return strconv.ParseFloat(m, 64)
}
