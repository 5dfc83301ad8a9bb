// Package ecs provides ECS adapters for arbor.
package ecs

import (
	"github.com/phanxgames/arbor"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// TreeEventType is the Donburi event type for arbor tree events. Subscribe
// to this in your ECS systems to track node additions, renames, frees, and
// tree status changes.
var TreeEventType = events.NewEventType[arbor.TreeEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Tree
// events are published to TreeEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) arbor.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitTreeEvent(event arbor.TreeEvent) {
	TreeEventType.Publish(s.world, event)
}
