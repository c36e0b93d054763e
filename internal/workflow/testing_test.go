package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/sandbox"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Append(ctx context.Context, subject, text string) error {
	return m.Called(ctx, subject, text).Error(0)
}

type MockSession struct {
	mock.Mock
}

func (m *MockSession) ExecuteCode(ctx context.Context, req sandbox.Request) (*sandbox.Execution, error) {
	args := m.Called(ctx, req)
	exec, _ := args.Get(0).(*sandbox.Execution)
	return exec, args.Error(1)
}

func (m *MockSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// countingFactory hands out the same session and counts how often it was asked.
type countingFactory struct {
	mu          sync.Mutex
	calls       int
	credentials []string
	session     sandbox.Session
	err         error
	delay       time.Duration
}

func (f *countingFactory) open(_ context.Context, credential string) (sandbox.Session, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.credentials = append(f.credentials, credential)
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *countingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingLogger keeps warnings so tests can assert on them.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

func echoFunc(_ context.Context, _ string, _ sandbox.Session, p Params) (Result, error) {
	return Result{"echo": p["text"]}, nil
}

// gatedFactory blocks every creation until release is closed.
type gatedFactory struct {
	countingFactory
	started chan struct{}
	release chan struct{}
	ctxErr  error
}

func newGatedFactory(session sandbox.Session) *gatedFactory {
	return &gatedFactory{
		countingFactory: countingFactory{session: session},
		started:         make(chan struct{}, 1),
		release:         make(chan struct{}),
	}
}

func (f *gatedFactory) open(ctx context.Context, credential string) (sandbox.Session, error) {
	f.started <- struct{}{}
	<-f.release
	f.mu.Lock()
	f.ctxErr = ctx.Err()
	f.mu.Unlock()
	return f.countingFactory.open(ctx, credential)
}
