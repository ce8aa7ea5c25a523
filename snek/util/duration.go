package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// Duration is a time.Duration which can be read from and written to text, such as TOML
// config values and HTTP request bodies. Besides everything time.ParseDuration accepts it
// understands day ("d") and week ("w") units, e.g. "2w", "1d12h".
type Duration time.Duration

// ParseDuration parses s into a time.Duration. Negative and overflowing values are rejected.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration: empty value")
	}
	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration: cannot parse %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration: negative value %q", s)
	}
	return d, nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalText ...
func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalText ...
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
