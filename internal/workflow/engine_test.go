package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/sandbox"
)

func newTestEngine(t *testing.T, sink Sink, factory *countingFactory, units ...Unit) *Engine {
	t.Helper()
	opts := []Option{
		WithNamespace(NewStaticNamespace("test", units...)),
		WithLogger(&recordingLogger{}),
		WithCredential("key-123"),
		WithSessionFactory(factory.open),
	}
	if sink != nil {
		opts = append(opts, WithSink(sink))
	}
	return New(context.Background(), opts...)
}

func newGatedEngine(t *testing.T, factory *gatedFactory) *Engine {
	t.Helper()
	return New(context.Background(),
		WithNamespace(NewStaticNamespace("test", echoUnit())),
		WithLogger(&recordingLogger{}),
		WithSessionFactory(factory.open),
	)
}

func echoUnit() Unit {
	return Unit{Name: "basic", Callables: []Callable{
		Mark("echo", echoFunc, WithID("echo"), WithParams("text")),
	}}
}

func TestExecute_Echo(t *testing.T) {
	ctx := context.Background()
	sink := new(MockSink)
	sink.On("Append", mock.Anything, "u1", mock.MatchedBy(func(text string) bool {
		return strings.HasPrefix(text, "Workflow echo executed for u1.") &&
			strings.Contains(text, `"echo":"hi"`)
	})).Return(nil).Once()

	factory := &countingFactory{session: new(MockSession)}
	e := newTestEngine(t, sink, factory, echoUnit())

	res, err := e.Execute(ctx, Request{ID: "echo", Subject: "u1", Params: Params{"text": "hi"}})
	require.NoError(t, err)
	assert.Equal(t, Result{"echo": "hi"}, res)
	assert.Equal(t, 1, factory.count())
	assert.Equal(t, []string{"key-123"}, factory.credentials)
	sink.AssertExpectations(t)
}

func TestExecute_UnknownIDHasNoSideEffects(t *testing.T) {
	sink := new(MockSink)
	factory := &countingFactory{session: new(MockSession)}
	e := newTestEngine(t, sink, factory, echoUnit())

	_, err := e.Execute(context.Background(), Request{ID: "missing.id", Subject: "u1"})
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.Contains(t, err.Error(), "missing.id")
	assert.Zero(t, factory.count())
	sink.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_SinkFailureIsIgnored(t *testing.T) {
	sink := new(MockSink)
	sink.On("Append", mock.Anything, "u1", mock.Anything).Return(errors.New("store down"))

	logger := &recordingLogger{}
	factory := &countingFactory{session: new(MockSession)}
	e := New(context.Background(),
		WithNamespace(NewStaticNamespace("test", echoUnit())),
		WithLogger(logger),
		WithSink(sink),
		WithSessionFactory(factory.open),
	)

	res, err := e.Execute(context.Background(), Request{ID: "echo", Subject: "u1", Params: Params{"text": "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hi", res["echo"])
	assert.Contains(t, logger.warnings(), "Failed to store workflow result")
}

func TestExecute_DefinitionErrorPassesThrough(t *testing.T) {
	boom := errors.New("step exploded")
	failing := func(context.Context, string, sandbox.Session, Params) (Result, error) {
		return nil, boom
	}
	sink := new(MockSink)
	factory := &countingFactory{session: new(MockSession)}
	e := newTestEngine(t, sink, factory, Unit{Name: "reports", Callables: []Callable{
		Mark("fail", failing),
	}})

	res, err := e.Execute(context.Background(), Request{ID: "reports.fail", Subject: "u1"})
	assert.Nil(t, res)
	assert.True(t, err == boom, "expected the workflow's own error, got %v", err)
	sink.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_DefaultsReachTheFunc(t *testing.T) {
	var seen Params
	capture := func(_ context.Context, _ string, _ sandbox.Session, p Params) (Result, error) {
		seen = p
		return Result{}, nil
	}
	factory := &countingFactory{session: new(MockSession)}
	e := newTestEngine(t, nil, factory, Unit{Name: "basic", Callables: []Callable{
		Mark("run_code", capture, WithDefaults(Params{"language": "python", "persist": true})),
	}})

	_, err := e.Execute(context.Background(), Request{
		ID: "basic.run_code", Params: Params{"code": "1+1", "persist": false},
	})
	require.NoError(t, err)
	assert.Equal(t, Params{"code": "1+1", "language": "python", "persist": false}, seen)
}

func TestExecute_SessionCreatedOnce(t *testing.T) {
	factory := &countingFactory{session: new(MockSession)}
	e := newTestEngine(t, nil, factory, echoUnit())

	for range 5 {
		_, err := e.Execute(context.Background(), Request{ID: "echo", Params: Params{"text": "x"}})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, factory.count())
}

func TestExecute_SessionCreatedOnceConcurrently(t *testing.T) {
	factory := &countingFactory{session: new(MockSession), delay: 20 * time.Millisecond}
	e := newTestEngine(t, nil, factory, echoUnit())

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Execute(context.Background(), Request{ID: "echo", Params: Params{"text": "x"}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, factory.count())
}

func TestSession_CreatorCancellationDoesNotFailWaiters(t *testing.T) {
	session := new(MockSession)
	factory := newGatedFactory(session)
	e := newGatedEngine(t, factory)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := e.Session(ctx)
		firstErr <- err
	}()
	<-factory.started
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	second := make(chan error, 1)
	go func() {
		s, err := e.Session(context.Background())
		if err == nil && s == nil {
			err = errors.New("nil session")
		}
		second <- err
	}()
	close(factory.release)

	require.NoError(t, <-second)
	assert.Equal(t, 1, factory.count())
	assert.NoError(t, factory.ctxErr)
}

func TestClose_WaitsForCreationInFlight(t *testing.T) {
	ctx := context.Background()
	raw := new(MockSession)
	raw.On("Close", mock.Anything).Return(nil).Once()
	factory := newGatedFactory(raw)
	e := newGatedEngine(t, factory)

	opened := make(chan error, 1)
	go func() {
		_, err := e.Session(ctx)
		opened <- err
	}()
	<-factory.started

	closed := make(chan error, 1)
	go func() { closed <- e.Close(ctx) }()
	close(factory.release)

	require.NoError(t, <-opened)
	require.NoError(t, <-closed)
	raw.AssertExpectations(t)

	// the next caller gets a fresh creation rather than the closed session
	_, err := e.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, factory.count())
}

func TestSession_FailureIsRetried(t *testing.T) {
	factory := &countingFactory{err: errors.New("sandbox unreachable")}
	e := newTestEngine(t, nil, factory, echoUnit())

	_, err := e.Execute(context.Background(), Request{ID: "echo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sandbox unreachable")

	factory.mu.Lock()
	factory.err = nil
	factory.session = new(MockSession)
	factory.mu.Unlock()

	_, err = e.Execute(context.Background(), Request{ID: "echo"})
	require.NoError(t, err)
	assert.Equal(t, 2, factory.count())
}

func TestSession_NoFactory(t *testing.T) {
	e := New(context.Background(),
		WithNamespace(NewStaticNamespace("test", echoUnit())),
		WithLogger(&recordingLogger{}),
	)
	_, err := e.Execute(context.Background(), Request{ID: "echo"})
	assert.ErrorIs(t, err, ErrNoSandbox)
}

func TestSession_PersistsFlaggedSteps(t *testing.T) {
	ctx := context.Background()
	raw := new(MockSession)
	req := sandbox.Request{Code: "print(2)", Subject: "u1", Persist: true}
	raw.On("ExecuteCode", mock.Anything, req).Return(&sandbox.Execution{
		Success: true, Outputs: []sandbox.Output{{Stream: "stdout", Text: "2\n"}},
	}, nil)

	sink := new(MockSink)
	sink.On("Append", mock.Anything, "u1", mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "print(2)")
	})).Return(nil).Once()

	e := newTestEngine(t, sink, &countingFactory{session: raw})
	s, err := e.Session(ctx)
	require.NoError(t, err)

	exec, err := s.ExecuteCode(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "2\n", exec.Stdout())
	sink.AssertExpectations(t)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	raw := new(MockSession)
	raw.On("Close", mock.Anything).Return(nil).Once()
	factory := &countingFactory{session: raw}
	e := newTestEngine(t, nil, factory, echoUnit())

	require.NoError(t, e.Close(ctx), "closing before first use is a no-op")

	_, err := e.Session(ctx)
	require.NoError(t, err)
	require.NoError(t, e.Close(ctx))
	raw.AssertExpectations(t)

	_, err = e.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, factory.count())
}

func TestEngineListAndDescribe(t *testing.T) {
	e := newTestEngine(t, nil, &countingFactory{}, echoUnit(),
		Unit{Name: BaseUnit, Callables: []Callable{Mark("helper", echoFunc)}})

	assert.Equal(t, []string{"echo"}, e.List())
	def, ok := e.Describe("echo")
	require.True(t, ok)
	assert.Equal(t, []string{"text"}, def.Params)
	assert.Same(t, e.Registry(), e.registry)
}

func TestSummary(t *testing.T) {
	got := Summary("echo", "u1", Result{"echo": "hi"})
	assert.Equal(t, `Workflow echo executed for u1. Result: {"echo":"hi"}`, got)
}
