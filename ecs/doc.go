// Package ecs provides ECS adapters for mosaic.
//
// The primary adapter is [NewDonburiStats], which forwards scheduler stats
// into a [Donburi] world as typed events. Subscribe to [StatsEventType] in
// your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiStats(world)
//	sched, err := mosaic.NewScheduler(cfg, mosaic.WithStats(sink))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
