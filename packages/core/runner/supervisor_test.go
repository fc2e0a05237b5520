package runner

import (
	"context"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisor_NoTask(t *testing.T) {
	sup := NewSupervisor[*RunResult]()
	_, err := sup.Value(context.Background())
	assert.ErrorIs(t, err, errs.ErrCancelled)
}

func TestSupervisor_Value(t *testing.T) {
	sup := NewSupervisor[*RunResult]()
	sup.Run(context.Background(), func(ctx context.Context) (*RunResult, error) {
		return &RunResult{ID: "only"}, nil
	})

	result, err := sup.Value(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "only", result.ID)
}

func TestSupervisor_NewRunSupersedesInFlight(t *testing.T) {
	sup := NewSupervisor[*RunResult]()
	release := make(chan struct{})
	oldCancelled := make(chan struct{})

	old := sup.Run(context.Background(), func(ctx context.Context) (*RunResult, error) {
		<-ctx.Done()
		close(oldCancelled)
		// the old run still produces a result after being superseded
		<-release
		return &RunResult{ID: "old", Failed: 1}, nil
	})

	sup.Run(context.Background(), func(ctx context.Context) (*RunResult, error) {
		return &RunResult{ID: "new"}, nil
	})

	select {
	case <-oldCancelled:
	case <-time.After(time.Second):
		t.Fatal("previous run was not cancelled")
	}

	result, err := sup.Value(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", result.ID)

	close(release)
	<-old.Done()

	result, err = sup.Value(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", result.ID, "the superseded result is discarded")
}

func TestSupervisor_Cancel(t *testing.T) {
	sup := NewSupervisor[*RunResult]()
	sup.Run(context.Background(), func(ctx context.Context) (*RunResult, error) {
		<-ctx.Done()
		return &RunResult{ID: "late"}, nil
	})

	sup.Cancel()
	_, err := sup.Value(context.Background())
	assert.ErrorIs(t, err, errs.ErrCancelled)
}

func TestSupervisor_ValueHonoursContext(t *testing.T) {
	sup := NewSupervisor[*RunResult]()
	block := make(chan struct{})
	defer close(block)
	sup.Run(context.Background(), func(ctx context.Context) (*RunResult, error) {
		<-block
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := sup.Value(ctx)
	assert.ErrorIs(t, err, errs.ErrCancelled)
}
