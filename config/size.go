package config

import (
	"errors"
	"strconv"
	"strings"
)

// ParseSize converts a human-readable size string into a byte count.
// Recognized suffixes are KB, MB and GB (case-insensitive, base-1024);
// a bare number is taken as bytes.
func ParseSize(s string) (int64, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if upper == "" {
		return 0, errors.New("size cannot be empty")
	}

	number := upper
	var multiplier int64 = 1

	switch {
	case strings.HasSuffix(upper, "KB"):
		number = upper[:len(upper)-2]
		multiplier = 1024
	case strings.HasSuffix(upper, "MB"):
		number = upper[:len(upper)-2]
		multiplier = 1024 * 1024
	case strings.HasSuffix(upper, "GB"):
		number = upper[:len(upper)-2]
		multiplier = 1024 * 1024 * 1024
	}

	n, err := strconv.ParseInt(strings.TrimSpace(number), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("size cannot be negative")
	}

	return n * multiplier, nil
}
