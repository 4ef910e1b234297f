package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinedeck/cinedeck/internal/config"
	"github.com/cinedeck/cinedeck/internal/scheduler"
)

type proberFunc func(ctx context.Context) error

func (f proberFunc) ProbeAll(ctx context.Context) error { return f(ctx) }

func TestRegisterUpstreamProbeTask(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = sched.Stop() }()

	probed := make(chan struct{}, 1)
	prober := proberFunc(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		select {
		case probed <- struct{}{}:
		default:
		}
		return nil
	})

	require.NoError(t, RegisterUpstreamProbeTask(sched, prober, config.HealthConfig{}, zerolog.Nop()))

	info, err := sched.GetTask(UpstreamProbeTaskID)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Health.ProbeCron, info.Cron)

	sched.Start()
	select {
	case <-probed:
	case <-time.After(2 * time.Second):
		t.Fatal("probe did not run on start")
	}
}
