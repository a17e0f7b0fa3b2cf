package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaultIsIdempotent(t *testing.T) {
	require.NotPanics(t, RegisterDefault)
	require.NotPanics(t, RegisterDefault)

	families, err := Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCountersAccumulate(t *testing.T) {
	before := testutil.ToFloat64(DrinkMutations.WithLabelValues("create", "ok"))
	DrinkMutations.WithLabelValues("create", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DrinkMutations.WithLabelValues("create", "ok")))
}
