package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eminbuyuk/lxmon/internal/agentmetrics"
	"github.com/eminbuyuk/lxmon/internal/models"
)

type fakeProbe struct {
	name      string
	samples   []models.Metric
	err       error
	panics    bool
	available bool
}

func (f *fakeProbe) Name() string      { return f.name }
func (f *fakeProbe) IsAvailable() bool { return f.available }

func (f *fakeProbe) Collect(context.Context) ([]models.Metric, error) {
	if f.panics {
		panic("probe exploded")
	}
	return f.samples, f.err
}

func probe(name string, values ...float64) *fakeProbe {
	p := &fakeProbe{name: name, available: true}
	for _, v := range values {
		p.samples = append(p.samples, sample(models.TypeSystem, name, v, "count"))
	}
	return p
}

func TestCollectAll_OrderAndDurationSample(t *testing.T) {
	r := NewRegistry(zap.NewNop(), agentmetrics.New())
	r.Register(probe("a", 1, 2))
	r.Register(probe("b", 3))
	r.Register(probe("c", 4, 5))

	batch := r.CollectAll(context.Background())

	require.Len(t, batch, 6)
	var values []float64
	for _, m := range batch[:5] {
		values = append(values, m.Value)
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, values)

	last := batch[5]
	assert.Equal(t, models.TypeAgent, last.Type)
	assert.Equal(t, "collection_duration", last.Name)
	assert.Equal(t, "seconds", last.Unit)
	assert.GreaterOrEqual(t, last.Value, 0.0)
}

func TestCollectAll_FailedProbesAreDropped(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := agentmetrics.New()
	r := NewRegistry(zap.New(core), m)

	failing := probe("broken")
	failing.err = errors.New("permission denied")
	exploding := probe("exploding")
	exploding.panics = true

	r.Register(probe("a", 1))
	r.Register(failing)
	r.Register(exploding)
	r.Register(probe("b", 2))

	batch := r.CollectAll(context.Background())

	require.Len(t, batch, 3)
	assert.Equal(t, 1.0, batch[0].Value)
	assert.Equal(t, 2.0, batch[1].Value)
	assert.Equal(t, "collection_duration", batch[2].Name)

	assert.Equal(t, 2, logs.FilterMessage("Collection failed").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbeErrors.WithLabelValues("broken")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbeErrors.WithLabelValues("exploding")))
}

func TestCollectAll_AllProbesFail(t *testing.T) {
	r := NewRegistry(zap.NewNop(), agentmetrics.New())
	failing := probe("broken")
	failing.err = errors.New("nope")
	r.Register(failing)

	batch := r.CollectAll(context.Background())

	require.Len(t, batch, 1)
	assert.Equal(t, "collection_duration", batch[0].Name)
}

func TestRegister_SkipsUnavailable(t *testing.T) {
	r := NewRegistry(zap.NewNop(), agentmetrics.New())
	p := probe("hidden", 1)
	p.available = false
	r.Register(p)
	r.Register(probe("shown", 1))

	require.Len(t, r.Collectors(), 1)
	assert.Equal(t, "shown", r.Collectors()[0].Name())
}

func TestDefaults_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Defaults(zap.NewNop()) {
		assert.False(t, seen[c.Name()], "duplicate probe %q", c.Name())
		seen[c.Name()] = true
	}
	assert.Len(t, seen, 8)
}

func TestLocalIP_NeverEmpty(t *testing.T) {
	assert.NotEmpty(t, LocalIP())
}
