package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	name     string
	fail     error
	written  []string
	reverted []string
	calls    *[]string
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(_ context.Context, v string) error {
	*s.calls = append(*s.calls, "write:"+s.name)
	if s.fail != nil {
		return s.fail
	}
	s.written = append(s.written, v)
	return nil
}

func (s *recordingSink) Revert(_ context.Context, v string) error {
	*s.calls = append(*s.calls, "revert:"+s.name)
	s.reverted = append(s.reverted, v)
	return nil
}

func TestWriter_BestEffortAttemptsAll(t *testing.T) {
	var calls []string
	backend := &recordingSink{name: "backend", fail: errors.New("connection refused"), calls: &calls}
	snapshot := &recordingSink{name: "snapshot", calls: &calls}

	report := NewWriter[string](BestEffort, backend, snapshot).Write(context.Background(), "form")

	assert.Equal(t, []string{"write:backend", "write:snapshot"}, calls)
	assert.False(t, report.OK())
	assert.Equal(t, []string{"snapshot"}, report.Succeeded())
	require.Error(t, report.Err())
	assert.Contains(t, report.Err().Error(), "backend: connection refused")
	assert.Equal(t, []string{"form"}, snapshot.written)
}

func TestWriter_AllOrNothingRevertsInReverse(t *testing.T) {
	var calls []string
	a := &recordingSink{name: "a", calls: &calls}
	b := &recordingSink{name: "b", calls: &calls}
	c := &recordingSink{name: "c", fail: errors.New("boom"), calls: &calls}
	d := &recordingSink{name: "d", calls: &calls}

	report := NewWriter[string](AllOrNothing, a, b, c, d).Write(context.Background(), "v")

	assert.Equal(t, []string{"write:a", "write:b", "write:c", "revert:b", "revert:a"}, calls)
	assert.False(t, report.OK())
	assert.Empty(t, report.Succeeded())
	assert.False(t, report.Outcomes[3].Attempted)
	assert.True(t, report.Outcomes[0].Reverted)
}

func TestWriter_AllSucceed(t *testing.T) {
	var calls []string
	a := &recordingSink{name: "a", calls: &calls}
	b := &recordingSink{name: "b", calls: &calls}

	for _, policy := range []Policy{BestEffort, AllOrNothing} {
		calls = nil
		report := NewWriter[string](policy, a, b).Write(context.Background(), "v")
		assert.True(t, report.OK(), policy.String())
		assert.NoError(t, report.Err())
		assert.Equal(t, []string{"a", "b"}, report.Succeeded())
	}
}

func TestFunc(t *testing.T) {
	var got int
	s := Func[int]{
		SinkName: "fn",
		WriteFn: func(_ context.Context, v int) error {
			got = v
			return nil
		},
	}

	report := NewWriter[int](AllOrNothing, s).Write(context.Background(), 7)
	assert.True(t, report.OK())
	assert.Equal(t, 7, got)
	assert.ErrorIs(t, s.Revert(context.Background(), 7), ErrNotRevertible)
}

func TestWriter_AllOrNothingKeepsWriteWithoutRevertFn(t *testing.T) {
	var calls []string
	plain := Func[string]{
		SinkName: "plain",
		WriteFn: func(_ context.Context, _ string) error {
			calls = append(calls, "write:plain")
			return nil
		},
	}
	undoable := &recordingSink{name: "undoable", calls: &calls}
	failing := &recordingSink{name: "failing", fail: errors.New("boom"), calls: &calls}

	report := NewWriter[string](AllOrNothing, plain, undoable, failing).Write(context.Background(), "v")

	assert.Equal(t, []string{"write:plain", "write:undoable", "write:failing", "revert:undoable"}, calls)
	assert.False(t, report.Outcomes[0].Reverted)
	assert.NoError(t, report.Outcomes[0].RevertErr)
	assert.True(t, report.Outcomes[1].Reverted)
	assert.Equal(t, []string{"plain"}, report.Succeeded(), "a write that was never undone still holds the value")
	assert.NotContains(t, report.Err().Error(), "revert")
}

func TestWriter_NoSinks(t *testing.T) {
	report := NewWriter[string](BestEffort).Write(context.Background(), "v")
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
}
