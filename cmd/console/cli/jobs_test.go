package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/commerce-console/jobs"
)

func TestBuildTask(t *testing.T) {
	for _, name := range TriggerableJobs() {
		task, err := buildTask(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, task.Type())
	}

	_, err := buildTask("analytics:warmup")
	assert.ErrorContains(t, err, "unsupported job")
}

func TestNewJobsCLIRequiresAddress(t *testing.T) {
	_, err := NewJobsCLI(asynq.RedisClientOpt{})
	assert.Error(t, err)
}

func TestRunUsage(t *testing.T) {
	c, err := NewJobsCLI(asynq.RedisClientOpt{Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	var out bytes.Buffer
	ctx := context.Background()
	assert.ErrorIs(t, c.Run(ctx, nil, &out), ErrUsage)
	assert.ErrorIs(t, c.Run(ctx, []string{"trigger"}, &out), ErrUsage)
	assert.ErrorIs(t, c.Run(ctx, []string{"scheduled", "many"}, &out), ErrUsage)
	assert.ErrorIs(t, c.Run(ctx, []string{"purge"}, &out), ErrUsage)
	assert.ErrorContains(t, c.Run(ctx, []string{"trigger", "nope"}, &out), "unsupported job")
	assert.Empty(t, out.String())
}

func TestNilCLI(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), jobs.TaskCartScan)
	assert.Error(t, err)
	_, err = c.InspectQueue(context.Background(), "")
	assert.Error(t, err)
}
