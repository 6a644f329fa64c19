package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

func TestNewStandardRegistersEveryInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	tel := NewStandard(prometrics.New(reg, "", ""), nil, nil)

	for _, key := range []observability.MetricKey{
		observability.MUsecaseRequests,
		observability.MHTTPRequests,
		observability.MExternalRequests,
		observability.MPaymentCapturedNotPlaced,
	} {
		assert.NotEqual(t, observability.NopCounter(), tel.Metrics().Counter(key), key)
	}
	for _, key := range []observability.MetricKey{
		observability.MUsecaseDuration,
		observability.MHTTPRequestDuration,
		observability.MExternalRequestDuration,
	} {
		assert.NotEqual(t, observability.NopHistogram(), tel.Metrics().Histogram(key), key)
	}

	tel.Metrics().Counter(observability.MPaymentCapturedNotPlaced).Add(1, observability.L("reason", "stock"))
	n, err := testutil.GatherAndCount(reg, string(observability.MPaymentCapturedNotPlaced))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewStandardWithoutRegistryIsNop(t *testing.T) {
	tel := NewStandard(nil, nil, nil)
	assert.Equal(t, observability.NopCounter(), tel.Metrics().Counter(observability.MUsecaseRequests))
	assert.NotNil(t, tel.Logger())
	assert.NotNil(t, tel.Tracer())
}

func TestUnknownKeyFallsBackToNop(t *testing.T) {
	tel := NewStandard(prometrics.New(prometheus.NewRegistry(), "", ""), nil, nil)
	assert.Equal(t, observability.NopHistogram(), tel.Metrics().Histogram("nope"))
}
