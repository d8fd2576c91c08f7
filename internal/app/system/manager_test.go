package system

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	name       string
	startCount int
	stopCount  int
	startErr   error
	calls      *[]string
}

func (m *mockService) Name() string { return m.name }

func (m *mockService) Start(context.Context) error {
	m.startCount++
	if m.calls != nil {
		*m.calls = append(*m.calls, "start:"+m.name)
	}
	return m.startErr
}

func (m *mockService) Stop(context.Context) error {
	m.stopCount++
	if m.calls != nil {
		*m.calls = append(*m.calls, "stop:"+m.name)
	}
	return nil
}

func TestManagerStartStopOrder(t *testing.T) {
	mgr := NewManager()
	var calls []string
	services := []*mockService{{name: "a", calls: &calls}, {name: "b", calls: &calls}, {name: "c", calls: &calls}}
	for _, svc := range services {
		require.NoError(t, mgr.Register(svc))
	}

	require.NoError(t, mgr.Start(context.Background()))
	require.NoError(t, mgr.Stop(context.Background()))

	for _, svc := range services {
		assert.Equal(t, 1, svc.startCount)
		assert.Equal(t, 1, svc.stopCount)
	}
	assert.Equal(t, []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}, calls)
}

func TestManagerRollbackOnStartFailure(t *testing.T) {
	mgr := NewManager()
	good := &mockService{name: "good"}
	bad := &mockService{name: "bad", startErr: errors.New("boom")}

	require.NoError(t, mgr.Register(good))
	require.NoError(t, mgr.Register(bad))

	err := mgr.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, good.stopCount)
}

func TestRegisterAfterStartRejected(t *testing.T) {
	mgr := NewManager()
	require.NoError(t, mgr.Register(&mockService{name: "a"}))
	require.NoError(t, mgr.Start(context.Background()))

	err := mgr.Register(&mockService{name: "late"})
	assert.Error(t, err)
}

func TestStopIsIdempotent(t *testing.T) {
	mgr := NewManager()
	svc := &mockService{name: "a"}
	require.NoError(t, mgr.Register(svc))
	require.NoError(t, mgr.Start(context.Background()))

	require.NoError(t, mgr.Stop(context.Background()))
	require.NoError(t, mgr.Stop(context.Background()))
	assert.Equal(t, 1, svc.stopCount)
}
