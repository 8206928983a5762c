package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interpinfo/internal/domain"
)

func TestPrometheus_Lookups(t *testing.T) {
	p := NewPrometheus("test")

	p.Lookup(domain.TierMemory)
	p.Lookup(domain.TierMemory)
	p.Lookup(domain.TierDurable)
	p.Lookup(domain.TierInterrogation)

	expected := `
		# HELP test_lookups_total Interpreter lookups by the tier that answered them
		# TYPE test_lookups_total counter
		test_lookups_total{tier="durable"} 1
		test_lookups_total{tier="interrogation"} 1
		test_lookups_total{tier="memory"} 2
	`
	err := testutil.GatherAndCompare(p.Registry(), strings.NewReader(expected), "test_lookups_total")
	assert.NoError(t, err)
}

func TestPrometheus_StaleEntries(t *testing.T) {
	p := NewPrometheus("test")
	p.StaleEntry("mtime")
	p.StaleEntry("system_executable")
	p.StaleEntry("mtime")

	assert.Equal(t, 2.0, testutil.ToFloat64(p.stale.WithLabelValues("mtime")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.stale.WithLabelValues("system_executable")))
}

func TestPrometheus_InterrogationResults(t *testing.T) {
	p := NewPrometheus("test")

	p.Interrogation(10*time.Millisecond, nil)
	p.Interrogation(time.Millisecond, &domain.InterrogationError{Kind: domain.SpawnFailure})
	p.Interrogation(time.Millisecond, &domain.InterrogationError{Kind: domain.NonZeroExit})
	p.Interrogation(time.Millisecond, &domain.DecodeError{Reason: "x"})
	p.Interrogation(time.Millisecond, errors.New("other"))

	count, err := testutil.GatherAndCount(p.Registry(), "test_interrogation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestPrometheus_WriteTextfile(t *testing.T) {
	p := NewPrometheus("")
	p.Lookup(domain.TierMemory)

	path := filepath.Join(t.TempDir(), "interpinfo.prom")
	require.NoError(t, p.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `interpinfo_lookups_total{tier="memory"} 1`)
}
