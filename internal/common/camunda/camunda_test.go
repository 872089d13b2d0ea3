package camunda

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"meal-waste-workers/internal/common/config"
	"meal-waste-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"permission denied", false},
		{"job not found", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(fmt.Errorf("%s", tt.msg)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	err := mapZeebeError(fmt.Errorf("unavailable"), "topology", 2)

	std, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeBrokerUnavailable, std.Code)
	assert.Contains(t, std.Details, "after 3 attempts")
	assert.True(t, std.Retryable)
}

func TestNewClientWithConfig_UnreachableBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewClientWithConfig(ctx, &ClientConfig{
		GatewayAddress:         "127.0.0.1:1",
		UsePlaintextConnection: true,
		ConnectionTimeout:      200 * time.Millisecond,
		RetryConfig:            &RetryConfig{MaxRetries: 0},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBrokerUnavailable, errors.CodeOf(err))
}

func TestRegistry_DisabledWorkerIsSkipped(t *testing.T) {
	r := &Registry{logger: zaptest.NewLogger(t)}

	started := r.Start("predict-food-waste", config.WorkerConfig{Enabled: false}, func(worker.JobClient, entities.Job) {})

	assert.False(t, started)
	assert.Empty(t, r.TaskTypes())
	r.Stop()
}

func TestBPMNFiles(t *testing.T) {
	files, err := BPMNFiles(filepath.Join("..", "..", "..", "bpmn"))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "meal-waste-process.bpmn", filepath.Base(files[0]))
	assert.Equal(t, "waste-alerts-process.bpmn", filepath.Base(files[1]))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.bpmn"), 0o700))
	files, err = BPMNFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = BPMNFiles(filepath.Join(dir, "absent"))
	assert.Error(t, err)
}
