package scene

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/rigidscene/internal/core/observability/log"
	"github.com/zeusync/rigidscene/internal/core/physics"
	"github.com/zeusync/rigidscene/internal/core/physics/clock"
	"github.com/zeusync/rigidscene/internal/core/physics/debug"
	"github.com/zeusync/rigidscene/internal/core/physics/engine"
	"github.com/zeusync/rigidscene/internal/core/physics/engine/sandbox"
)

type fixture struct {
	eng   *sandbox.Engine
	clk   *clock.Manual
	logs  *observer.ObservedLogs
	scene *Scene
}

func newFixture(t *testing.T, sb sandbox.Options, mutate ...func(*Options)) *fixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	f := &fixture{
		eng:  sandbox.New(sb),
		clk:  clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		logs: logs,
	}
	opts := Options{
		Engine: f.eng,
		Clock:  f.clk,
		Logger: log.Wrap(zap.New(core)),
	}
	for _, m := range mutate {
		m(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	f.scene = s
	t.Cleanup(s.Release)
	return f
}

// running returns a fixture whose scene is initialized at 60Hz.
func running(t *testing.T, sb sandbox.Options, mutate ...func(*Options)) *fixture {
	t.Helper()
	f := newFixture(t, sb, mutate...)
	require.NoError(t, f.scene.Init(1.0/60.0))
	return f
}

func withRecorder(r *debug.Recorder) func(*Options) {
	return func(o *Options) { o.Dialer = debug.RecorderDialer(r) }
}

func count(entries []string, want string) int {
	n := 0
	for _, e := range entries {
		if e == want {
			n++
		}
	}
	return n
}

func indexOf(entries []string, want string) int {
	for i, e := range entries {
		if e == want {
			return i
		}
	}
	return -1
}

func TestNew_RequiresEngine(t *testing.T) {
	_, err := New(Options{})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNew_DistinctSerials(t *testing.T) {
	a := newFixture(t, sandbox.Options{})
	b := newFixture(t, sandbox.Options{})
	require.NotEqual(t, a.scene.ID(), b.scene.ID())
	require.Equal(t, StateUninitialized, a.scene.State())
}

func TestInit_BootstrapAndTeardownOrder(t *testing.T) {
	f := newFixture(t, sandbox.Options{})
	require.NoError(t, f.scene.Init(1.0/60.0))
	require.Equal(t, StateRunning, f.scene.State())
	require.Equal(t, float32(1.0/60.0), f.scene.Timestep())
	require.False(t, f.scene.DebugEnabled())

	require.Equal(t, []string{
		"create:foundation",
		"create:physics",
		"create:material",
		"create:cooking",
		"create:dispatcher",
		"create:simulation",
	}, f.eng.Journal())

	f.scene.Release()
	require.Equal(t, StateReleased, f.scene.State())
	require.Equal(t, []string{
		"release:simulation",
		"release:dispatcher",
		"release:cooking",
		"release:material",
		"release:physics",
		"release:foundation",
	}, f.eng.Journal()[6:])
	require.Zero(t, f.eng.Live())
	require.Equal(t, 1, f.logs.FilterMessage("scene released").Len())
}

func TestInit_WithDebugLink(t *testing.T) {
	rec := debug.NewRecorder(true)
	f := newFixture(t, sandbox.Options{}, withRecorder(rec))

	require.NoError(t, f.scene.InitWithDebug(1.0/60.0, debug.Config{Host: "127.0.0.1", Port: 5425, FullConnection: true}))
	require.True(t, f.scene.DebugEnabled())

	journal := f.eng.Journal()
	require.Equal(t, indexOf(journal, "create:physics")+1, indexOf(journal, "create:extensions"))

	f.scene.Release()
	require.True(t, rec.Closed())
	journal = f.eng.Journal()
	require.Less(t, indexOf(journal, "release:material"), indexOf(journal, "release:extensions"))
	require.Less(t, indexOf(journal, "release:extensions"), indexOf(journal, "release:physics"))
	require.Zero(t, f.eng.Live())
}

func TestInit_DebugDialFailureIsNotFatal(t *testing.T) {
	dialErr := errors.New("connection refused")
	f := newFixture(t, sandbox.Options{}, func(o *Options) {
		o.Dialer = func(context.Context, debug.Config, log.Log) (debug.Link, error) { return nil, dialErr }
	})

	require.NoError(t, f.scene.InitWithDebug(1.0/60.0, debug.Config{Host: "127.0.0.1", Port: 1, Timeout: time.Millisecond}))
	require.False(t, f.scene.DebugEnabled())
	require.Equal(t, -1, indexOf(f.eng.Journal(), "create:extensions"))
	require.Equal(t, 1, f.logs.FilterMessage("debug link unavailable, continuing without it").Len())
}

func TestInit_FailureUnwindsEverything(t *testing.T) {
	tests := []struct {
		op    string
		debug bool
	}{
		{sandbox.OpFoundation, false},
		{sandbox.OpPhysics, false},
		{sandbox.OpExtensions, true},
		{sandbox.OpMaterial, false},
		{sandbox.OpCooking, false},
		{sandbox.OpDispatcher, false},
		{sandbox.OpSimulation, true},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			rec := debug.NewRecorder(false)
			f := newFixture(t, sandbox.Options{Fault: sandbox.FailOn(tt.op)}, withRecorder(rec))

			var err error
			if tt.debug {
				err = f.scene.InitWithDebug(1.0/60.0, debug.Config{Port: 1})
			} else {
				err = f.scene.Init(1.0 / 60.0)
			}
			require.ErrorIs(t, err, ErrInitialization)
			require.ErrorIs(t, err, engine.ErrFault)
			require.Equal(t, StateUninitialized, f.scene.State())
			require.Zero(t, f.eng.Live(), "journal: %v", f.eng.Journal())
			require.False(t, f.scene.DebugEnabled())
			if tt.debug {
				require.True(t, rec.Closed())
			}
			require.Equal(t, 1, f.logs.FilterMessage("scene initialization failed").Len())

			_, err = f.scene.CreateBoxStatic(physics.Vector3{}, physics.Vec3(1, 1, 1))
			require.ErrorIs(t, err, ErrSceneNotRunning)
		})
	}
}

func TestInit_FailedAttemptCanBeRetried(t *testing.T) {
	fail := true
	f := newFixture(t, sandbox.Options{Fault: func(op string) error {
		if fail && op == sandbox.OpCooking {
			return engine.ErrFault
		}
		return nil
	}})

	require.ErrorIs(t, f.scene.Init(1.0/60.0), ErrInitialization)
	fail = false
	require.NoError(t, f.scene.Init(1.0/60.0))
	require.Equal(t, StateRunning, f.scene.State())
}

func TestInit_RejectsBadTimestep(t *testing.T) {
	f := newFixture(t, sandbox.Options{})
	for _, ts := range []float32{0, -1} {
		err := f.scene.Init(ts)
		require.ErrorIs(t, err, ErrInitialization)
		require.ErrorIs(t, err, ErrInvalidArgument)
	}
	require.Empty(t, f.eng.Journal())
}

func TestInit_ConcurrentCallsBootstrapOnce(t *testing.T) {
	f := newFixture(t, sandbox.Options{})

	const callers = 32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.scene.Init(1.0/60.0))
		}()
	}
	wg.Wait()
	require.Equal(t, 1, count(f.eng.Journal(), "create:foundation"))
	require.Equal(t, 1, f.logs.FilterMessage("scene initialized").Len())

	// A running scene ignores a different timestep.
	require.NoError(t, f.scene.Init(1.0/30.0))
	require.Equal(t, float32(1.0/60.0), f.scene.Timestep())

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.scene.Release()
		}()
	}
	wg.Wait()
	require.Equal(t, 1, count(f.eng.Journal(), "release:foundation"))
	require.Equal(t, 1, f.logs.FilterMessage("scene released").Len())
	require.Zero(t, f.eng.Live())
}

func TestInit_ConcurrentWithRelease(t *testing.T) {
	f := newFixture(t, sandbox.Options{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = f.scene.Init(1.0 / 60.0)
		}()
		go func() {
			defer wg.Done()
			f.scene.Release()
		}()
	}
	wg.Wait()
	f.scene.Release()

	journal := f.eng.Journal()
	require.LessOrEqual(t, count(journal, "create:foundation"), 1)
	require.Equal(t, count(journal, "create:foundation"), count(journal, "release:foundation"))
	require.Zero(t, f.eng.Live())
}

func TestRelease_Lifecycle(t *testing.T) {
	t.Run("never initialized", func(t *testing.T) {
		f := newFixture(t, sandbox.Options{})
		f.scene.Release()
		require.Equal(t, StateUninitialized, f.scene.State())
		require.Empty(t, f.eng.Journal())
		require.NoError(t, f.scene.Init(1.0/60.0))
	})

	t.Run("init after release", func(t *testing.T) {
		f := running(t, sandbox.Options{})
		f.scene.Release()
		require.ErrorIs(t, f.scene.Init(1.0/60.0), ErrSceneReleased)
		require.ErrorIs(t, f.scene.Update(), ErrSceneNotRunning)
	})

	t.Run("actors released before engine", func(t *testing.T) {
		f := running(t, sandbox.Options{})
		_, err := f.scene.CreateBoxDynamic(physics.Vec3(0, 5, 0), physics.Vec3(1, 1, 1))
		require.NoError(t, err)
		_, err = f.scene.CreateMeshStatic(physics.Vector3{}, physics.Vec3(1, 1, 1), []float32{0, 0, 0, 1, 0, 0, 0, 0, 1}, []uint16{0, 1, 2})
		require.NoError(t, err)

		f.scene.Release()
		journal := f.eng.Journal()
		require.Less(t, indexOf(journal, "release:dynamic"), indexOf(journal, "release:simulation"))
		require.Less(t, indexOf(journal, "release:static"), indexOf(journal, "release:triangle-mesh"))
		require.Less(t, indexOf(journal, "release:triangle-mesh"), indexOf(journal, "release:simulation"))
		require.Zero(t, f.eng.Live())
	})
}

func TestStats(t *testing.T) {
	f := running(t, sandbox.Options{})
	_, err := f.scene.CreateSphereDynamic(physics.Vec3(0, 10, 0), 1)
	require.NoError(t, err)
	_, err = f.scene.CreateSphereStatic(physics.Vector3{}, -1)
	require.Error(t, err)

	f.clk.Advance(50 * time.Millisecond)
	require.NoError(t, f.scene.Update())

	st := f.scene.Stats()
	require.Equal(t, StateRunning, st.State)
	require.Equal(t, 1, st.Actors)
	require.Equal(t, uint64(1), st.Updates)
	require.Equal(t, uint64(3), st.Steps)
	require.Equal(t, uint64(1), st.Failures)
	require.Equal(t, 50*time.Millisecond, st.SimulatedTime)
	require.Equal(t, "running", st.State.String())
}
