package etc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var binaryUnits = []struct {
	suffix string
	mult   int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
}

// ParseSize reads sizes like "64MB", "512 KiB", "1.5GiB" or "1048576".
// KB, MB and GB with an integer count are powers of 1024; anything else is
// handed to humanize.ParseBytes.
func ParseSize(sizeStr string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(sizeStr))
	if s == "" {
		return 0, nil
	}
	for _, u := range binaryUnits {
		if n, ok := strings.CutSuffix(s, u.suffix); ok {
			if v, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return v * u.mult, nil
			}
		}
	}
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", sizeStr, err)
	}
	return int64(v), nil
}
