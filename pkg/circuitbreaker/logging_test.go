package circuitbreaker

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/architeacher/resilience/pkg/logger"
)

func TestLoggingObserver(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		from      State
		to        State
		wantLevel string
	}{
		{
			name:      "entering open logs at error level",
			from:      StateClosed,
			to:        StateOpen,
			wantLevel: "error",
		},
		{
			name:      "entering half-open logs at warn level",
			from:      StateOpen,
			to:        StateHalfOpen,
			wantLevel: "warn",
		},
		{
			name:      "recovering to closed logs at info level",
			from:      StateHalfOpen,
			to:        StateClosed,
			wantLevel: "info",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			observer := NewLoggingObserver(logger.NewBufferedTestLogger(&buf))

			observer.OnStateChange("payments", tc.from, tc.to)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

			require.Equal(t, tc.wantLevel, entry["level"])
			require.Equal(t, "payments", entry["circuit_breaker"])
			require.Equal(t, tc.from.String(), entry["from"])
			require.Equal(t, tc.to.String(), entry["to"])
			require.Equal(t, "circuit breaker state changed", entry["message"])
		})
	}
}
