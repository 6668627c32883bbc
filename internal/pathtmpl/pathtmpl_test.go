package pathtmpl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	at := time.Date(2024, time.March, 5, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{name: "no placeholders", pattern: "/data/reports", want: "/data/reports"},
		{name: "all placeholders", pattern: "/logs/%YEAR%/%MONTH%/%DAY%", want: "/logs/2024/03/05"},
		{name: "repeated", pattern: "/%DAY%/%DAY%", want: "/05/05"},
		{name: "adjacent", pattern: "/%YEAR%%MONTH%%DAY%.zip", want: "/20240305.zip"},
		{name: "unknown token", pattern: "/%HOST%/%YEAR%", want: "/%HOST%/2024"},
		{name: "lowercase is not a placeholder", pattern: "/%year%", want: "/%year%"},
		{name: "stray percent", pattern: "C:\\Downloads\\100%\\%MONTH%", want: "C:\\Downloads\\100%\\03"},
		{name: "empty", pattern: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.pattern, at))
		})
	}
}

func TestResolvePadding(t *testing.T) {
	at := time.Date(987, time.January, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "0987-01-02", Resolve("%YEAR%-%MONTH%-%DAY%", at))
}

func TestResolveDeterministic(t *testing.T) {
	at := time.Date(2023, time.December, 31, 12, 0, 0, 0, time.UTC)
	pattern := "/%YEAR%/%MONTH%/%DAY%/%UNKNOWN%"

	first := Resolve(pattern, at)
	for range 10 {
		assert.Equal(t, first, Resolve(pattern, at))
	}
	assert.Len(t, first, len("/2023/12/31/%UNKNOWN%"))
}
