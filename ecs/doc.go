// Package ecs provides ECS adapters for arbor's tree event system.
//
// The primary adapter is [NewDonburiSink], which bridges arbor tree events
// (node added, renamed, freed, tree status changed) into a [Donburi] world
// as typed events. Subscribe to [TreeEventType] in your ECS systems to
// receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	tree.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
