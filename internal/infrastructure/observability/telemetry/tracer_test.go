package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripScheme(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"localhost:4317", "localhost:4317"},
		{"http://collector:4317", "collector:4317"},
		{"https://collector:4317", "collector:4317"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, stripScheme(tt.in))
		})
	}
}

func TestSetupTracerWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := SetupTracer(context.Background(), "test", "", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
