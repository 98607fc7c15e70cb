package core

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocrud/modkit/config"
	"github.com/gocrud/modkit/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(opts ...Option) *BuildContext {
	return NewBuildContext(append([]Option{WithLogger(logging.Nop())}, opts...)...)
}

func TestNewBuildContextDefaults(t *testing.T) {
	bc := newTestContext()

	assert.NotEmpty(t, bc.ID())
	assert.Equal(t, GenerationCurrent, bc.Generation())
	assert.False(t, bc.IsLegacy())
	assert.NotNil(t, bc.Hooks())
	assert.NotNil(t, bc.Recorder())
	assert.NotNil(t, bc.Reporter())
	assert.NotNil(t, bc.Checker())
	assert.NotNil(t, bc.Compiler())
	assert.Equal(t, DefaultSlowThreshold, bc.SetupPolicy().Threshold())
	assert.Empty(t, bc.Options())
}

func TestLegacyContextHasNoRegistry(t *testing.T) {
	bc := newTestContext(WithGeneration(GenerationLegacy))
	assert.True(t, bc.IsLegacy())
	assert.Nil(t, bc.Hooks())
}

func TestOptionsFromConfiguration(t *testing.T) {
	cfg := config.New(map[string]any{
		"debug":   true,
		"sitemap": map[string]any{"hostname": "example.com", "gzip": true},
	})

	bc := newTestContext(
		WithConfiguration(cfg),
		WithOptions(map[string]any{"sitemap": map[string]any{"gzip": false}}),
	)

	assert.True(t, bc.Debug())
	assert.Equal(t, map[string]any{"hostname": "example.com", "gzip": false}, bc.Options()["sitemap"])

	// 副本
	bc.Options()["sitemap"].(map[string]any)["hostname"] = "changed"
	v, ok := bc.Option("sitemap")
	require.True(t, ok)
	assert.Equal(t, "example.com", v.(map[string]any)["hostname"])

	bc.SetOption("pwa", map[string]any{"enabled": true})
	assert.Contains(t, bc.Options(), "pwa")
}

func TestWithDebugOverridesConfiguration(t *testing.T) {
	cfg := config.New(map[string]any{"debug": true})
	bc := newTestContext(WithDebug(false), WithConfiguration(cfg))
	assert.False(t, bc.Debug())
}

func TestMarkInstalledMemory(t *testing.T) {
	ctx := context.Background()
	bc := newTestContext()

	first, err := bc.MarkInstalled(ctx, "a")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := bc.MarkInstalled(ctx, "a")
	require.NoError(t, err)
	assert.False(t, second)

	installed, err := bc.IsInstalled(ctx, "a")
	require.NoError(t, err)
	assert.True(t, installed)

	installed, err = bc.IsInstalled(ctx, "b")
	require.NoError(t, err)
	assert.False(t, installed)
}

func TestMarkInstalledConcurrent(t *testing.T) {
	ctx := context.Background()
	bc := newTestContext()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := bc.MarkInstalled(ctx, "a"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

type fakeStore struct {
	marked map[string]bool
	err    error
}

func (s *fakeStore) MarkInstalled(_ context.Context, buildID, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	k := buildID + "/" + key
	if s.marked[k] {
		return false, nil
	}
	s.marked[k] = true
	return true, nil
}

func (s *fakeStore) IsInstalled(_ context.Context, buildID, key string) (bool, error) {
	return s.marked[buildID+"/"+key], s.err
}

func TestMarkInstalledStore(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{marked: map[string]bool{}}
	bc := newTestContext(WithID("build-1"), WithInstallStore(store))

	ok, err := bc.MarkInstalled(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, store.marked["build-1/a"])

	ok, err = bc.MarkInstalled(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	store.err = errors.New("connection refused")
	_, err = bc.MarkInstalled(ctx, "b")
	assert.ErrorIs(t, err, store.err)
}

func TestHookRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewHookRegistry()

	var calls []string
	r.Hook("build:done", func(_ context.Context, args ...any) error {
		calls = append(calls, "first:"+args[0].(string))
		return nil
	})
	r.AddHooks(map[string]HookFunc{
		"build:done": func(context.Context, ...any) error {
			calls = append(calls, "second")
			return errors.New("stop")
		},
	})
	r.Hook("build:done", func(context.Context, ...any) error {
		calls = append(calls, "third")
		return nil
	})

	err := r.CallHook(ctx, "build:done", "x")
	assert.EqualError(t, err, "stop")
	assert.Equal(t, []string{"first:x", "second"}, calls)

	assert.NoError(t, r.CallHook(ctx, "unknown"))
}

func TestContextOwnHooks(t *testing.T) {
	ctx := context.Background()
	bc := newTestContext(WithGeneration(GenerationLegacy))

	called := false
	bc.Hook("ready", func(context.Context, ...any) error {
		called = true
		return nil
	})
	require.NoError(t, bc.CallHook(ctx, "ready"))
	assert.True(t, called)
}

func TestCloseOrder(t *testing.T) {
	ctx := context.Background()
	bc := newTestContext()

	var order []string
	bc.Hooks().Hook("close", func(_ context.Context, args ...any) error {
		assert.Same(t, bc, args[0])
		order = append(order, "hook")
		return nil
	})
	bc.OnClose(func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	bc.OnClose(func(context.Context) error {
		order = append(order, "second")
		return errors.New("second failed")
	})
	bc.SetCleanup("res", func() { order = append(order, "cleanup") })

	err := bc.Close(ctx)
	assert.EqualError(t, err, "second failed")
	assert.Equal(t, []string{"hook", "second", "first", "cleanup"}, order)
	assert.True(t, bc.Closed())

	require.NoError(t, bc.Close(ctx))
	assert.Len(t, order, 4)
}

func TestCloseLogsHandlerFailure(t *testing.T) {
	var buf bytes.Buffer
	bc := NewBuildContext(WithLogger(logging.NewWriterLogger(&buf, logging.LogLevelInfo)))
	bc.OnClose(func(context.Context) error { return errors.New("boom") })

	assert.Error(t, bc.Close(context.Background()))
	assert.Contains(t, buf.String(), "WARN [modkit] Close handler failed {error=boom}")
}

func TestOnce(t *testing.T) {
	bc := newTestContext()
	n := 0

	assert.True(t, bc.Once("x", func() { n++ }))
	assert.False(t, bc.Once("x", func() { n++ }))
	assert.True(t, bc.Once("y", func() { n++ }))
	assert.Equal(t, 2, n)

	other := newTestContext()
	assert.True(t, other.Once("x", func() { n++ }))
}

func TestCurrent(t *testing.T) {
	a := newTestContext()
	b := newTestContext()
	t.Cleanup(func() { ClearCurrent(a); ClearCurrent(b) })

	assert.True(t, SetCurrent(a))
	assert.False(t, SetCurrent(b))
	assert.Same(t, a, Current())

	ClearCurrent(b)
	assert.Same(t, a, Current())

	ClearCurrent(a)
	assert.Nil(t, Current())
}

func TestSetupPolicy(t *testing.T) {
	p := SetupPolicy{Exempt: []string{"telemetry"}}
	assert.False(t, p.IsSlow("a", 5*time.Second))
	assert.True(t, p.IsSlow("a", 5*time.Second+time.Millisecond))
	assert.False(t, p.IsSlow("telemetry", time.Minute))
	assert.True(t, p.IsSlow("", time.Minute))

	custom := SetupPolicy{SlowThreshold: 100 * time.Millisecond}
	assert.True(t, custom.IsSlow("a", 200*time.Millisecond))
}

func TestAccessors(t *testing.T) {
	bc := newTestContext(
		WithID("b1"),
		WithVersion("3.4.0"),
		WithBuilder("vite", "5.1.0"),
		WithSrcDir("/src"),
		WithBuildDir("/src/.build"),
		WithExtensions(".js", ".ts"),
		WithPlugins("plugins/a.js"),
	)
	bc.AddPlugin("plugins/b.js")

	assert.Equal(t, "b1", bc.ID())
	assert.Equal(t, "3.4.0", bc.Version())
	assert.Equal(t, "vite", bc.Builder())
	assert.Equal(t, "5.1.0", bc.BuilderVersion())
	assert.Equal(t, "/src", bc.SrcDir())
	assert.Equal(t, "/src/.build", bc.BuildDir())
	assert.Equal(t, []string{".js", ".ts"}, bc.Extensions())
	assert.Equal(t, []string{"plugins/a.js", "plugins/b.js"}, bc.Plugins())
}

func TestDefaultLoggerFollowsConfiguration(t *testing.T) {
	cfg := config.New(map[string]any{
		"logging": map[string]any{"level": "warn", "format": "json"},
	})

	var buf bytes.Buffer
	logger := newDefaultLogger(cfg, false, &buf)
	logger.Info("dropped")
	logger.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"message":"kept"`)

	buf.Reset()
	logger = newDefaultLogger(cfg, true, &buf)
	logger.Debug("debugging")
	assert.Contains(t, buf.String(), `"message":"debugging"`)
}

func TestDefaultLoggerWarnsOnBadConfiguration(t *testing.T) {
	cfg := config.New(map[string]any{
		"logging": map[string]any{"level": "loud", "format": "xml"},
	})

	var buf bytes.Buffer
	logger := newDefaultLogger(cfg, false, &buf)
	out := buf.String()
	assert.Contains(t, out, "Invalid logging configuration")
	assert.Contains(t, out, `unknown log level "loud"`)
	assert.Contains(t, out, `unknown log format "xml"`)

	buf.Reset()
	logger.Info("fallback")
	assert.Contains(t, buf.String(), "fallback")
}
