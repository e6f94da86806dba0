package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/protocol"
	"github.com/zapdesk/automata/pkg/registry"
)

type scriptedAction struct {
	errs  []error
	calls int
}

func (a *scriptedAction) Execute(_ context.Context, _ models.ActionRequest, _ *slog.Logger) (map[string]any, error) {
	err := a.errs[a.calls]
	a.calls++

	if err != nil {
		return nil, err
	}

	return map[string]any{"done": true}, nil
}

type scriptedFactory struct {
	action *scriptedAction
}

func (*scriptedFactory) ID() models.ActionType { return models.ActionAddTag }

func (f *scriptedFactory) Create() (protocol.Action, error) { return f.action, nil }

func newTestDispatcher(t *testing.T, action *scriptedAction) (*Dispatcher, *[]time.Duration) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	reg := registry.NewRegistry(logger)
	reg.RegisterAction(&scriptedFactory{action: action})

	d := NewDispatcher(reg, logger)

	slept := &[]time.Duration{}
	d.sleep = func(_ context.Context, delay time.Duration) error {
		*slept = append(*slept, delay)

		return nil
	}

	return d, slept
}

func request() models.ActionRequest {
	return models.ActionRequest{
		Type:      models.ActionAddTag,
		CompanyID: "co-1",
		TargetID:  "cust-1",
		Params:    map[string]any{"tag": "vip"},
	}
}

func TestDispatch_SucceedsFirstAttempt(t *testing.T) {
	action := &scriptedAction{errs: []error{nil}}
	d, slept := newTestDispatcher(t, action)

	outcome := d.Dispatch(context.Background(), request())

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Empty(t, outcome.Error)
	assert.Empty(t, *slept)
	assert.NotEmpty(t, outcome.ID)
}

func TestDispatch_RetriesTransientWithBackoff(t *testing.T) {
	action := &scriptedAction{errs: []error{
		Transient(errors.New("timeout")),
		Transient(errors.New("timeout")),
		nil,
	}}
	d, slept := newTestDispatcher(t, action)

	outcome := d.Dispatch(context.Background(), request())

	assert.True(t, outcome.Success)
	assert.Equal(t, 3, outcome.Attempts)
	require.Len(t, *slept, 2)
	assert.Equal(t, 2*time.Second, (*slept)[0])
	assert.Equal(t, 4*time.Second, (*slept)[1], "delay doubles per retry")
}

func TestDispatch_ExhaustsRetryBudget(t *testing.T) {
	boom := Transient(errors.New("still down"))
	action := &scriptedAction{errs: []error{boom, boom, boom}}
	d, _ := newTestDispatcher(t, action)

	outcome := d.Dispatch(context.Background(), request())

	assert.False(t, outcome.Success)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Contains(t, outcome.Error, "still down")
	assert.Equal(t, 3, action.calls)
}

func TestDispatch_PermanentFailureIsNotRetried(t *testing.T) {
	action := &scriptedAction{errs: []error{Permanent(errors.New("unknown target"))}}
	d, slept := newTestDispatcher(t, action)

	outcome := d.Dispatch(context.Background(), request())

	assert.False(t, outcome.Success)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, 1, action.calls)
	assert.Empty(t, *slept)
}

func TestDispatch_UnclassifiedErrorsAreRetried(t *testing.T) {
	action := &scriptedAction{errs: []error{errors.New("flaky"), nil}}
	d, _ := newTestDispatcher(t, action)

	outcome := d.Dispatch(context.Background(), request())

	assert.True(t, outcome.Success)
	assert.Equal(t, 2, outcome.Attempts)
}

func TestDispatch_UnregisteredActionTypeFailsPermanently(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	d := NewDispatcher(registry.NewRegistry(logger), logger)

	outcome := d.Dispatch(context.Background(), request())

	assert.False(t, outcome.Success)
	assert.Zero(t, outcome.Attempts)
	assert.Contains(t, outcome.Error, "not registered")
}
