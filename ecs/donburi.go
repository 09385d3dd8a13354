package ecs

import (
	"github.com/phanxgames/mosaic"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// StatsEvent is published for every tick that changed the partition.
type StatsEvent struct {
	mosaic.Stats
	// Finished is set on the update that moved the run to a stop state.
	Finished bool
}

// StatsEventType is the Donburi event type for scheduler stats.
var StatsEventType = events.NewEventType[StatsEvent]()

type donburiStats struct {
	world donburi.World
	last  mosaic.State
}

// NewDonburiStats creates a StatsSink backed by a Donburi world. Updates are
// published to StatsEventType and can be consumed with events.Subscribe and
// ProcessEvents.
func NewDonburiStats(world donburi.World) mosaic.StatsSink {
	return &donburiStats{world: world}
}

func (s *donburiStats) Update(st mosaic.Stats) {
	finished := st.State.Done() && !s.last.Done()
	s.last = st.State
	StatsEventType.Publish(s.world, StatsEvent{Stats: st, Finished: finished})
}
