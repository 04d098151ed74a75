package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateTo(t *testing.T) {
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local).Unix()
	require.Equal(t, want, ParseDateTo("2024-03-10"))
}

func TestParseDateToEmpty(t *testing.T) {
	require.Zero(t, ParseDateTo(""))
}

func TestParseDateToMalformed(t *testing.T) {
	for _, input := range []string{"10-03-2024", "2024/03/10", "yesterday", "2024-13-40"} {
		require.Zero(t, ParseDateTo(input), "input %q", input)
	}
}
