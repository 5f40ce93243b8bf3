package types

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Size strings use single-letter binary prefixes with an optional trailing B:
// "10" is 10 bytes, "10K" is 10240, "1.5M" is 1572864. Multipliers are powers
// of 1024, not 1000.
var sizePattern = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGTP]?B?)\s*$`)

var sizeExponents = map[byte]int{
	'K': 1,
	'M': 2,
	'G': 3,
	'T': 4,
	'P': 5,
}

// ParseSize converts a size string like "10", "512K", "1.5M", "10G" or "2P"
// into a byte count. The suffix is case-insensitive and a trailing "B" is
// optional ("10KB" == "10K").
func ParseSize(s string) (int64, error) {
	matches := sizePattern.FindStringSubmatch(strings.ToUpper(s))
	if matches == nil {
		return 0, fmt.Errorf("invalid size %q: expected <number>[K|M|G|T|P][B]", s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	suffix := strings.TrimSuffix(matches[2], "B")
	multiplier := 1.0
	if suffix != "" {
		multiplier = math.Pow(1024, float64(sizeExponents[suffix[0]]))
	}

	bytes := value * multiplier
	if bytes > math.MaxInt64 {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return int64(bytes), nil
}

// FormatSize renders a byte count in the most compact exact form: the largest
// binary prefix that divides it evenly ("10240" → "10K", "1025" → "1025").
func FormatSize(bytes int64) string {
	if bytes == 0 {
		return "0"
	}

	letters := []byte{'P', 'T', 'G', 'M', 'K'}
	for _, letter := range letters {
		unit := int64(1) << (10 * sizeExponents[letter])
		if bytes%unit == 0 {
			return strconv.FormatInt(bytes/unit, 10) + string(letter)
		}
	}
	return strconv.FormatInt(bytes, 10)
}
