package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varbridge/backend/internal/figma"
	"github.com/varbridge/backend/internal/models"
)

type fakeUpstream struct {
	token   bool
	calls   atomic.Int32
	delay   time.Duration
	resp    *figma.VariablesResponse
	err     error
	varJSON json.RawMessage
}

func (f *fakeUpstream) HasToken() bool { return f.token }

func (f *fakeUpstream) GetFileVariables(ctx context.Context, fileKey string) (*figma.VariablesResponse, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.resp, f.err
}

func (f *fakeUpstream) GetVariable(ctx context.Context, variableID string) (json.RawMessage, error) {
	return f.varJSON, f.err
}

type fakeRecorder struct {
	mu    sync.Mutex
	files []string
	err   error
}

func (r *fakeRecorder) Record(ctx context.Context, fileKey string, views []models.VariableView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, fileKey)
	return r.err
}

func sampleResponse(t *testing.T) *figma.VariablesResponse {
	t.Helper()
	var resp figma.VariablesResponse
	err := json.Unmarshal([]byte(`{"meta":{"variables":{
		"v1":{"name":"size","variableCollectionId":"c1","resolvedType":"FLOAT","valuesByMode":{"m":8}}
	},"variableCollections":{"c1":{"name":"Spacing"}}}}`), &resp)
	require.NoError(t, err)
	return &resp
}

func TestService_FileVariables(t *testing.T) {
	up := &fakeUpstream{token: true, resp: sampleResponse(t)}
	rec := &fakeRecorder{}
	svc := NewService(up, rec, nil)

	views, err := svc.FileVariables(context.Background(), "file1")
	require.NoError(t, err)

	assert.Equal(t, []models.VariableView{
		{ID: "v1", Name: "size", Value: "8", Type: "FLOAT", Collection: "Spacing"},
	}, views)
	assert.Equal(t, []string{"file1"}, rec.files)
}

func TestService_RecorderFailureIsNotFatal(t *testing.T) {
	up := &fakeUpstream{token: true, resp: sampleResponse(t)}
	svc := NewService(up, &fakeRecorder{err: errors.New("disk full")}, nil)

	views, err := svc.FileVariables(context.Background(), "file1")
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestService_NoToken(t *testing.T) {
	up := &fakeUpstream{token: false}
	svc := NewService(up, nil, nil)

	assert.False(t, svc.Configured())
	_, err := svc.FileVariables(context.Background(), "file1")
	assert.ErrorIs(t, err, figma.ErrTokenNotConfigured)
	assert.Equal(t, int32(0), up.calls.Load())
}

func TestService_UpstreamError(t *testing.T) {
	upErr := &figma.APIError{Status: 404, StatusText: "Not Found"}
	svc := NewService(&fakeUpstream{token: true, err: upErr}, nil, nil)

	_, err := svc.FileVariables(context.Background(), "missing")
	var apiErr *figma.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestService_CoalescesConcurrentFetches(t *testing.T) {
	up := &fakeUpstream{token: true, resp: sampleResponse(t), delay: 100 * time.Millisecond}
	svc := NewService(up, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			views, err := svc.FileVariables(context.Background(), "same")
			assert.NoError(t, err)
			assert.Len(t, views, 1)
		}()
	}
	wg.Wait()

	assert.Less(t, up.calls.Load(), int32(5))
}

// gatedUpstream blocks GetFileVariables until release is closed or the
// request context ends.
type gatedUpstream struct {
	fakeUpstream
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedUpstream) GetFileVariables(ctx context.Context, fileKey string) (*figma.VariablesResponse, error) {
	g.calls.Add(1)
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return g.resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestService_CancelledCallerDoesNotFailOthers(t *testing.T) {
	up := &gatedUpstream{
		fakeUpstream: fakeUpstream{token: true, resp: sampleResponse(t)},
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	rec := &fakeRecorder{}
	svc := NewService(up, rec, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.FileVariables(ctxA, "f")
		errA <- err
	}()
	<-up.started

	type result struct {
		views []models.VariableView
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		views, err := svc.FileVariables(context.Background(), "f")
		resB <- result{views, err}
	}()
	// let B join the in-flight call
	time.Sleep(50 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(up.release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Len(t, b.views, 1)
	assert.Equal(t, int32(1), up.calls.Load())
	assert.Equal(t, []string{"f"}, rec.files)
}

func TestService_FetchTimeout(t *testing.T) {
	up := &gatedUpstream{
		fakeUpstream: fakeUpstream{token: true, resp: sampleResponse(t)},
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	svc := NewService(up, nil, nil)
	svc.fetchTimeout = 20 * time.Millisecond

	_, err := svc.FileVariables(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_Variable(t *testing.T) {
	svc := NewService(&fakeUpstream{token: true, varJSON: json.RawMessage(`{"id":"v1"}`)}, nil, nil)

	raw, err := svc.Variable(context.Background(), "v1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"v1"}`, string(raw))
}
