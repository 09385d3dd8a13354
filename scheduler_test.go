package mosaic

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type recorder struct {
	frames [][]Leaf
	stats  []Stats
	calls  []string
}

func (r *recorder) Draw(leaves []Leaf) {
	r.frames = append(r.frames, append([]Leaf(nil), leaves...))
	r.calls = append(r.calls, "draw")
}

func (r *recorder) Update(st Stats) {
	r.stats = append(r.stats, st)
	r.calls = append(r.calls, "stats")
}

func recordingScheduler(t *testing.T, cfg Config) (*Scheduler, *recorder) {
	t.Helper()
	rec := &recorder{}
	return newTestScheduler(t, cfg, WithRenderer(rec), WithStats(rec)), rec
}

// --- Construction ---

func TestNewSchedulerRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"negative threshold", func(c *Config) { c.Threshold = -1 }},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }},
		{"zero splits per tick", func(c *Config) { c.SplitsPerTick = 0 }},
		{"zero min block size", func(c *Config) { c.MinBlockSize = 0 }},
		{"zero max nodes", func(c *Config) { c.MaxNodes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(&cfg)
			if _, err := NewScheduler(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewScheduler err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestStartRejectsInvalidImage(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig())
	tests := []struct {
		name string
		img  *Image
	}{
		{"nil", nil},
		{"zero width", &Image{Width: 0, Height: 4, Pix: make([]byte, 16)}},
		{"short buffer", &Image{Width: 2, Height: 2, Pix: make([]byte, 15)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Start(tt.img); !errors.Is(err, ErrInvalidImage) {
				t.Errorf("Start err = %v, want ErrInvalidImage", err)
			}
			if s.State() != StateIdle {
				t.Errorf("State() = %v, want idle", s.State())
			}
		})
	}
}

// --- Ticking ---

func TestTickUniformImagePublishesRootOnce(t *testing.T) {
	cfg := Config{Threshold: 10, MaxDepth: 5, SplitsPerTick: 64, MinBlockSize: 1, MaxNodes: 100}
	s, rec := recordingScheduler(t, cfg)
	if err := s.Start(solidImage(2, 2, 0, 0, 0)); err != nil {
		t.Fatal(err)
	}

	if !s.Tick() {
		t.Fatal("first Tick after Start should publish")
	}
	if len(rec.frames) != 1 || len(rec.frames[0]) != 1 {
		t.Fatalf("frames = %v, want one frame with the root", rec.frames)
	}
	if leaf := rec.frames[0][0]; leaf.ID != 0 || leaf.Bounds != (Rect{0, 0, 2, 2}) || leaf.Color != (RGB{}) {
		t.Errorf("root leaf = %+v", leaf)
	}
	if s.State() != StateExhausted {
		t.Errorf("State() = %v, want exhausted", s.State())
	}

	if s.Tick() {
		t.Error("Tick on an exhausted scheduler should not publish")
	}
	if len(rec.frames) != 1 || len(rec.stats) != 1 {
		t.Errorf("published %d frames / %d stats, want 1/1", len(rec.frames), len(rec.stats))
	}
}

func TestTickPublishesRendererBeforeStats(t *testing.T) {
	cfg := Config{Threshold: 0, MaxDepth: 3, SplitsPerTick: 2, MinBlockSize: 1, MaxNodes: 1000}
	s, rec := recordingScheduler(t, cfg)
	if err := s.Start(noiseImage(16, 16, 8)); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	s.Tick()
	if want := []string{"draw", "stats", "draw", "stats"}; !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
	if got := rec.stats[1]; got.NodeCount != 13 || got.Splits != 4 || got.LeafCount != 13 {
		t.Errorf("stats = %+v, want 13 nodes after 4 splits", got)
	}
	if rec.stats[0].RunID != s.RunID() || s.RunID() == uuid.Nil {
		t.Error("stats should carry the run ID")
	}
}

func TestTickBoundedBySplitsPerTick(t *testing.T) {
	cfg := Config{Threshold: 0, MaxDepth: 8, SplitsPerTick: 3, MinBlockSize: 1, MaxNodes: 100_000}
	s := newTestScheduler(t, cfg)
	if err := s.Start(noiseImage(64, 64, 6)); err != nil {
		t.Fatal(err)
	}
	prevSplits, prevNodes := 0, 1
	for i := 0; i < 50 && s.Active(); i++ {
		s.Tick()
		tree := s.Tree()
		if d := tree.Splits() - prevSplits; d > 3 {
			t.Fatalf("tick %d performed %d splits, want at most 3", i, d)
		}
		if tree.NodeCount() < prevNodes {
			t.Fatalf("NodeCount decreased from %d to %d", prevNodes, tree.NodeCount())
		}
		if tree.NodeCount() != 1+3*tree.Splits() {
			t.Fatalf("NodeCount() = %d after %d splits", tree.NodeCount(), tree.Splits())
		}
		prevSplits, prevNodes = tree.Splits(), tree.NodeCount()
	}
	if prevSplits != 150 {
		t.Errorf("Splits() after 50 ticks = %d, want 150", prevSplits)
	}
	if err := s.Tree().Validate(); err != nil {
		t.Error(err)
	}
}

func TestTickDeterministic(t *testing.T) {
	cfg := Config{Threshold: 6, MaxDepth: 6, SplitsPerTick: 5, MinBlockSize: 1, MaxNodes: 10_000}
	img := noiseImage(30, 22, 13)
	run := func() [][]Leaf {
		s, rec := recordingScheduler(t, cfg)
		if err := s.Start(img); err != nil {
			t.Fatal(err)
		}
		s.RunToCompletion(10_000)
		return rec.frames
	}
	a, b := run(), run()
	if len(a) < 2 {
		t.Fatalf("expected several publishing ticks, got %d", len(a))
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical runs published different leaf sequences")
	}
}

func TestTickTiming(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Millisecond)
	}
	s := newTestScheduler(t, DefaultConfig(), WithClock(clock))
	if err := s.Start(cornerImage()); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	st := s.Stats()
	if st.TickDuration != time.Millisecond {
		t.Errorf("TickDuration = %v, want 1ms", st.TickDuration)
	}
	if st.TickMillis() != 1 {
		t.Errorf("TickMillis() = %v, want 1", st.TickMillis())
	}
	if st.Elapsed != 3*time.Millisecond {
		t.Errorf("Elapsed = %v, want 3ms", st.Elapsed)
	}
}

// --- Live settings ---

func TestLoweringThresholdResumesExhaustedRun(t *testing.T) {
	cfg := Config{Threshold: 200, MaxDepth: 5, SplitsPerTick: 64, MinBlockSize: 1, MaxNodes: 100}
	s, rec := recordingScheduler(t, cfg)
	if err := s.Start(cornerImage()); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	if s.State() != StateExhausted || s.Tree().NodeCount() != 1 {
		t.Fatalf("State/NodeCount = %v/%d, want exhausted/1", s.State(), s.Tree().NodeCount())
	}

	if err := s.SetThreshold(100); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateActive {
		t.Fatalf("State() after lowering threshold = %v, want active", s.State())
	}
	if !s.Tick() {
		t.Fatal("Tick after relaxing should publish")
	}
	if s.Tree().NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4", s.Tree().NodeCount())
	}
	if len(rec.frames) != 2 || len(rec.frames[1]) != 4 {
		t.Errorf("second frame has %d leaves, want 4", len(rec.frames[len(rec.frames)-1]))
	}
	if s.State() != StateExhausted {
		t.Errorf("State() = %v, want exhausted", s.State())
	}
}

func TestRaisingThresholdDoesNotWake(t *testing.T) {
	cfg := Config{Threshold: 200, MaxDepth: 5, SplitsPerTick: 64, MinBlockSize: 1, MaxNodes: 100}
	s := newTestScheduler(t, cfg)
	if err := s.Start(cornerImage()); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	if err := s.SetThreshold(300); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateExhausted {
		t.Errorf("State() = %v, want exhausted", s.State())
	}
	if err := s.SetThreshold(-1); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("SetThreshold(-1) err = %v, want ErrInvalidConfig", err)
	}
	if s.Settings().Threshold != 300 {
		t.Errorf("rejected threshold changed settings to %v", s.Settings().Threshold)
	}
}

func TestRaisingMaxDepthResumesExhaustedRun(t *testing.T) {
	cfg := Config{Threshold: 0, MaxDepth: 0, SplitsPerTick: 64, MinBlockSize: 1, MaxNodes: 100}
	s := newTestScheduler(t, cfg)
	if err := s.Start(cornerImage()); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	if s.State() != StateExhausted {
		t.Fatalf("State() = %v, want exhausted", s.State())
	}
	if err := s.SetMaxDepth(1); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateActive {
		t.Fatalf("State() = %v, want active", s.State())
	}
	s.Tick()
	if s.Tree().NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4", s.Tree().NodeCount())
	}
	if err := s.SetMaxDepth(31); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("SetMaxDepth(31) err = %v, want ErrInvalidConfig", err)
	}
}

func TestNodeCapStopsAndResumes(t *testing.T) {
	cfg := Config{Threshold: 0, MaxDepth: 10, SplitsPerTick: 1000, MinBlockSize: 1, MaxNodes: 10}
	s := newTestScheduler(t, cfg)
	if err := s.Start(noiseImage(64, 64, 12)); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	if s.State() != StateCapped {
		t.Fatalf("State() = %v, want capped", s.State())
	}
	if got := s.Tree().NodeCount(); got != 10 {
		t.Errorf("NodeCount() = %d, want 10", got)
	}
	if err := s.Tree().Validate(); err != nil {
		t.Errorf("capped tree invalid: %v", err)
	}
	if s.Tick() {
		t.Error("capped scheduler should not publish")
	}

	if err := s.SetMaxNodes(12); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateCapped {
		t.Error("raising the cap by less than one split should not resume")
	}
	if err := s.SetMaxNodes(13); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateActive {
		t.Fatalf("State() = %v, want active", s.State())
	}
	s.Tick()
	if got := s.Tree().NodeCount(); got != 13 || s.State() != StateCapped {
		t.Errorf("NodeCount/State = %d/%v, want 13/capped", got, s.State())
	}
}

func TestSetSplitsPerTick(t *testing.T) {
	cfg := Config{Threshold: 0, MaxDepth: 10, SplitsPerTick: 1, MinBlockSize: 1, MaxNodes: 100_000}
	s := newTestScheduler(t, cfg)
	if err := s.Start(noiseImage(64, 64, 14)); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	if err := s.SetSplitsPerTick(10); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	if got := s.Tree().Splits(); got != 11 {
		t.Errorf("Splits() = %d, want 11", got)
	}
	if err := s.SetSplitsPerTick(0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("SetSplitsPerTick(0) err = %v, want ErrInvalidConfig", err)
	}
}

func TestApply(t *testing.T) {
	cfg := Config{Threshold: 200, MaxDepth: 5, SplitsPerTick: 64, MinBlockSize: 1, MaxNodes: 100}
	s := newTestScheduler(t, cfg)
	if err := s.Start(cornerImage()); err != nil {
		t.Fatal(err)
	}
	s.Tick()

	next := cfg
	next.Threshold = 50
	next.MinBlockSize = 2
	if err := s.Apply(next); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateActive {
		t.Errorf("State() = %v, want active after relaxing threshold", s.State())
	}
	if s.Settings() != next {
		t.Errorf("Settings() = %+v, want %+v", s.Settings(), next)
	}
	if s.Tree().MinBlockSize() != 1 {
		t.Error("min block size should not change mid-run")
	}
	// The root (2x2) still splits under the old floor of 1.
	s.Tick()
	if s.Tree().NodeCount() != 4 {
		t.Errorf("NodeCount() = %d, want 4", s.Tree().NodeCount())
	}

	if err := s.Start(cornerImage()); err != nil {
		t.Fatal(err)
	}
	if s.Tree().MinBlockSize() != 2 {
		t.Errorf("MinBlockSize() after restart = %d, want 2", s.Tree().MinBlockSize())
	}
	s.Tick()
	if s.Tree().NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1 under floor 2", s.Tree().NodeCount())
	}

	bad := next
	bad.SplitsPerTick = 0
	if err := s.Apply(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Apply(invalid) err = %v, want ErrInvalidConfig", err)
	}
	if s.Settings() != next {
		t.Error("rejected Apply should leave settings unchanged")
	}
}

// --- Lifecycle ---

func TestStopAndResume(t *testing.T) {
	cfg := Config{Threshold: 0, MaxDepth: 10, SplitsPerTick: 1, MinBlockSize: 1, MaxNodes: 100_000}
	s, rec := recordingScheduler(t, cfg)
	if err := s.Start(noiseImage(32, 32, 15)); err != nil {
		t.Fatal(err)
	}
	s.Tick()
	s.Stop()
	if s.State() != StateIdle {
		t.Fatalf("State() = %v, want idle", s.State())
	}
	frames := len(rec.frames)
	if s.Tick() {
		t.Error("stopped scheduler should not publish")
	}
	if len(rec.frames) != frames || s.Tree().Splits() != 1 {
		t.Error("stopped scheduler should not split")
	}
	if s.Tree().LeafCount() != 4 {
		t.Error("stopped tree should keep its leaves")
	}

	s.Resume()
	if !s.Tick() || s.Tree().Splits() != 2 {
		t.Errorf("resumed Tick should split, Splits() = %d", s.Tree().Splits())
	}
}

func TestResetAndRestart(t *testing.T) {
	s, rec := recordingScheduler(t, Config{Threshold: 0, MaxDepth: 3, SplitsPerTick: 4, MinBlockSize: 1, MaxNodes: 1000})
	img := noiseImage(16, 16, 16)
	if err := s.Start(img); err != nil {
		t.Fatal(err)
	}
	first := s.RunID()
	s.Tick()

	s.Reset()
	if s.State() != StateIdle || s.Tree().Initialized() || s.Image() != nil || s.RunID() != uuid.Nil {
		t.Fatal("Reset should clear the run")
	}
	if s.Tick() {
		t.Error("Tick after Reset should not publish")
	}
	if _, err := s.Approximation(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Approximation after Reset err = %v, want ErrNotStarted", err)
	}
	s.Resume()
	if s.State() != StateIdle {
		t.Error("Resume after Reset should have no effect")
	}

	if err := s.Start(img); err != nil {
		t.Fatal(err)
	}
	if s.RunID() == first {
		t.Error("restart should get a fresh run ID")
	}
	if !s.Tick() {
		t.Error("first Tick after restart should publish")
	}
	if got := rec.frames[len(rec.frames)-1]; len(got) != 13 {
		t.Errorf("restart frame has %d leaves, want 13", len(got))
	}
}

func TestRunToCompletion(t *testing.T) {
	cfg := Config{Threshold: 4, MaxDepth: 6, SplitsPerTick: 16, MinBlockSize: 1, MaxNodes: 100_000}
	s := newTestScheduler(t, cfg)
	if err := s.Start(noiseImage(48, 48, 17)); err != nil {
		t.Fatal(err)
	}
	ticks := s.RunToCompletion(10_000)
	if ticks == 0 || ticks == 10_000 {
		t.Fatalf("RunToCompletion ran %d ticks", ticks)
	}
	if !s.State().Done() {
		t.Errorf("State() = %v, want a done state", s.State())
	}
	if s.Stats().State != s.State() {
		t.Errorf("last stats state %v, scheduler %v", s.Stats().State, s.State())
	}
	for _, l := range s.Tree().AppendLeaves(nil) {
		if l.Error > cfg.Threshold && l.Depth < cfg.MaxDepth && s.Tree().Node(l.ID).CanSplit() {
			t.Errorf("leaf %d still qualifies after completion", l.ID)
		}
	}
	if s.RunToCompletion(10) != 0 {
		t.Error("RunToCompletion on a finished run should not tick")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateIdle, "idle"},
		{StateActive, "active"},
		{StateExhausted, "exhausted"},
		{StateCapped, "capped"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
