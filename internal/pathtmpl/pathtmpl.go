// Package pathtmpl expands date placeholders in remote and local path patterns.
//
// Both remote and local patterns use the same zero-padded convention:
// %YEAR% is four digits, %MONTH% and %DAY% are two digits. Any other %...%
// token is left untouched.
package pathtmpl

import (
	"fmt"
	"strings"
	"time"
)

const (
	Year  = "%YEAR%"
	Month = "%MONTH%"
	Day   = "%DAY%"
)

func Placeholders() []string {
	return []string{Year, Month, Day}
}

func Resolve(pattern string, at time.Time) string {
	if !strings.Contains(pattern, "%") {
		return pattern
	}

	r := strings.NewReplacer(
		Year, fmt.Sprintf("%04d", at.Year()),
		Month, fmt.Sprintf("%02d", int(at.Month())),
		Day, fmt.Sprintf("%02d", at.Day()),
	)

	return r.Replace(pattern)
}
