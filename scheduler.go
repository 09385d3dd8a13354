package mosaic

import (
	"image"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maxDepthLimit matches the validate tag on Config.MaxDepth.
const maxDepthLimit = 30

// Scheduler drives a Tree in bounded batches, one batch per Tick, and reports
// changes to a Renderer and a StatsSink. It is single-threaded: the host calls
// Tick once per frame or timer tick, and every other method from the same
// goroutine between ticks.
type Scheduler struct {
	cfg     Config
	tree    *Tree
	img     *Image
	state   State
	dirty   bool // publish on the next Tick even if no split happens
	runID   uuid.UUID
	started time.Time
	last    Stats
	leafBuf []Leaf

	renderer Renderer
	stats    StatsSink
	log      logrus.FieldLogger
	now      func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRenderer sets the sink that receives the leaf set after changing ticks.
func WithRenderer(r Renderer) Option {
	return func(s *Scheduler) { s.renderer = r }
}

// WithStats sets the sink that receives counters after changing ticks.
func WithStats(st StatsSink) Option {
	return func(s *Scheduler) { s.stats = st }
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithClock replaces time.Now for tick timing.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler validates cfg and returns an idle scheduler. Invalid settings
// are fatal here, before any tree work happens.
func NewScheduler(cfg Config, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		cfg:  cfg,
		tree: NewTree(cfg.MinBlockSize),
		log:  logrus.StandardLogger(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start validates img, discards any previous run and begins partitioning it.
// The first Tick after Start always publishes, so the renderer sees the root
// even when no split will ever happen.
func (s *Scheduler) Start(img *Image) error {
	if err := img.Validate(); err != nil {
		return err
	}
	if s.tree.MinBlockSize() != s.cfg.MinBlockSize {
		s.tree = NewTree(s.cfg.MinBlockSize)
	}
	s.img = img
	s.tree.Initialize(img, s.cfg.Threshold, s.cfg.MaxDepth)
	s.runID = uuid.New()
	s.started = s.now()
	s.dirty = true
	s.state = StateActive
	s.logger().WithFields(logrus.Fields{
		"width":  img.Width,
		"height": img.Height,
		"error":  s.tree.Node(s.tree.Root()).Error,
	}).Info("partition started")
	return nil
}

// Tick performs at most SplitsPerTick splits. It stops early when the node cap
// would be exceeded (Capped) or the pending set runs dry (Exhausted). If the
// tree changed, the renderer and then the stats sink are called once; if not,
// neither is. Tick reports whether it published.
func (s *Scheduler) Tick() bool {
	if s.img == nil {
		return false
	}
	t0 := s.now()
	changed := s.dirty
	s.dirty = false

	if s.state == StateActive {
		for i := 0; i < s.cfg.SplitsPerTick; i++ {
			if s.tree.PendingLen() > 0 && s.tree.NodeCount()+3 > s.cfg.MaxNodes {
				s.transition(StateCapped)
				break
			}
			if !s.tree.Step(s.img, s.cfg.Threshold, s.cfg.MaxDepth) {
				s.transition(StateExhausted)
				break
			}
			changed = true
		}
	}

	if !changed {
		return false
	}
	s.publish(s.now().Sub(t0))
	return true
}

func (s *Scheduler) publish(tick time.Duration) {
	s.last = s.snapshot(tick)
	if s.renderer != nil {
		s.leafBuf = s.tree.AppendLeaves(s.leafBuf[:0])
		s.renderer.Draw(s.leafBuf)
	}
	if s.stats != nil {
		s.stats.Update(s.last)
	}
}

func (s *Scheduler) snapshot(tick time.Duration) Stats {
	st := Stats{RunID: s.runID, State: s.state, TickDuration: tick}
	if s.tree.Initialized() {
		st.NodeCount = s.tree.NodeCount()
		st.LeafCount = s.tree.LeafCount()
		st.MaxDepth = s.tree.MaxDepthReached()
		st.Splits = s.tree.Splits()
		st.Pending = s.tree.PendingLen()
		st.MeanError = s.tree.MeanError()
		st.Elapsed = s.now().Sub(s.started)
	}
	return st
}

func (s *Scheduler) transition(to State) {
	if s.state == to {
		return
	}
	from := s.state
	s.state = to
	entry := s.logger().WithFields(logrus.Fields{
		"from":  from.String(),
		"to":    to.String(),
		"nodes": s.tree.NodeCount(),
		"depth": s.tree.MaxDepthReached(),
	})
	switch to {
	case StateExhausted:
		entry.Info("partition complete")
	case StateCapped:
		entry.Warn("node cap reached")
	default:
		entry.Debug("state changed")
	}
}

func (s *Scheduler) logger() logrus.FieldLogger {
	if s.runID == uuid.Nil {
		return s.log
	}
	return s.log.WithField("run_id", s.runID.String())
}

// --- Live settings ---

// SetThreshold changes the split threshold. Lowering it re-queues leaves that
// now qualify and wakes an exhausted scheduler if any did.
func (s *Scheduler) SetThreshold(v float64) error {
	if math.IsNaN(v) || v < 0 {
		return errors.Wrapf(ErrInvalidConfig, "threshold must be >= 0, got %v", v)
	}
	old := s.cfg.Threshold
	s.cfg.Threshold = v
	if v < old {
		s.relax()
	}
	return nil
}

// SetMaxDepth changes the depth limit. Raising it re-queues leaves that now
// qualify and wakes an exhausted scheduler if any did.
func (s *Scheduler) SetMaxDepth(v int) error {
	if v < 0 || v > maxDepthLimit {
		return errors.Wrapf(ErrInvalidConfig, "max depth must be in [0, %d], got %d", maxDepthLimit, v)
	}
	old := s.cfg.MaxDepth
	s.cfg.MaxDepth = v
	if v > old {
		s.relax()
	}
	return nil
}

// SetSplitsPerTick changes the batch size of subsequent ticks.
func (s *Scheduler) SetSplitsPerTick(n int) error {
	if n < 1 {
		return errors.Wrapf(ErrInvalidConfig, "splits per tick must be >= 1, got %d", n)
	}
	s.cfg.SplitsPerTick = n
	return nil
}

// SetMaxNodes changes the node cap. Raising it above the current node count
// resumes a capped scheduler.
func (s *Scheduler) SetMaxNodes(n int) error {
	if n < 1 {
		return errors.Wrapf(ErrInvalidConfig, "max nodes must be >= 1, got %d", n)
	}
	s.cfg.MaxNodes = n
	if s.state == StateCapped && s.tree.NodeCount()+3 <= n {
		s.transition(StateActive)
	}
	return nil
}

// Apply replaces all live settings at once, as when a config file is
// reloaded. MinBlockSize is stored and used by the next Start.
func (s *Scheduler) Apply(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	relaxed := cfg.Threshold < s.cfg.Threshold || cfg.MaxDepth > s.cfg.MaxDepth
	if cfg.MinBlockSize != s.cfg.MinBlockSize && s.tree.Initialized() {
		s.logger().WithField("min_block_size", cfg.MinBlockSize).
			Info("minimum block size applies from the next start")
	}
	maxNodes := cfg.MaxNodes
	cfg.MaxNodes = s.cfg.MaxNodes
	s.cfg = cfg
	if relaxed {
		s.relax()
	}
	return s.SetMaxNodes(maxNodes)
}

// relax rebuilds the pending set after a threshold decrease or depth
// increase. Leaves rejected under the old settings may qualify now.
func (s *Scheduler) relax() {
	if !s.tree.Initialized() {
		return
	}
	added := s.tree.Rescan(s.cfg.Threshold, s.cfg.MaxDepth)
	s.logger().WithFields(logrus.Fields{
		"threshold": s.cfg.Threshold,
		"max_depth": s.cfg.MaxDepth,
		"requeued":  added,
	}).Debug("settings relaxed")
	if added > 0 && s.state == StateExhausted {
		s.transition(StateActive)
	}
}

// --- Lifecycle ---

// Stop pauses the run. The tree is kept and stays renderable.
func (s *Scheduler) Stop() {
	s.transition(StateIdle)
}

// Resume continues a stopped run. It has no effect before Start or after Reset.
func (s *Scheduler) Resume() {
	if s.state == StateIdle && s.img != nil {
		s.transition(StateActive)
	}
}

// Reset discards the tree and the image reference. The scheduler goes idle
// until the next Start.
func (s *Scheduler) Reset() {
	s.transition(StateIdle)
	s.tree.Reset()
	s.img = nil
	s.dirty = false
	s.runID = uuid.Nil
	s.last = Stats{}
	s.leafBuf = s.leafBuf[:0]
}

// --- Accessors ---

// State returns the current lifecycle state.
func (s *Scheduler) State() State { return s.state }

// Active reports whether the next Tick will attempt splits.
func (s *Scheduler) Active() bool { return s.state == StateActive }

// Settings returns the current settings.
func (s *Scheduler) Settings() Config { return s.cfg }

// Tree returns the owned tree. Callers must treat it as read-only.
func (s *Scheduler) Tree() *Tree { return s.tree }

// Image returns the image of the current run, or nil.
func (s *Scheduler) Image() *Image { return s.img }

// RunID identifies the current run in logs and stats.
func (s *Scheduler) RunID() uuid.UUID { return s.runID }

// Stats returns the stats of the last publishing tick.
func (s *Scheduler) Stats() Stats { return s.last }

// Approximation rasterizes the current partition. It fails with
// ErrNotStarted before Start or after Reset.
func (s *Scheduler) Approximation() (*image.RGBA, error) {
	if !s.tree.Initialized() {
		return nil, ErrNotStarted
	}
	return s.tree.Approximation(), nil
}

// RunToCompletion ticks until the scheduler leaves the active state or
// maxTicks ticks have run, and returns the number of ticks performed.
// Intended for headless use; a windowed host ticks once per frame instead.
func (s *Scheduler) RunToCompletion(maxTicks int) int {
	n := 0
	for ; n < maxTicks && (s.state == StateActive || s.dirty); n++ {
		s.Tick()
	}
	return n
}
