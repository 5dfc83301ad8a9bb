package ecs

import (
	"testing"

	"github.com/phanxgames/arbor"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)
	if sink == nil {
		t.Fatal("NewDonburiSink returned nil")
	}
}

func TestDonburiSink_EmitTreeEvent(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var received []arbor.TreeEvent
	TreeEventType.Subscribe(world, func(w donburi.World, e arbor.TreeEvent) {
		received = append(received, e)
	})

	sink.EmitTreeEvent(arbor.TreeEvent{
		Kind: arbor.EventNodeAdded,
		Name: "Player",
	})

	sink.EmitTreeEvent(arbor.TreeEvent{
		Kind:   arbor.EventTreeStatusChanged,
		Status: arbor.TreeRunning,
	})

	// Events sit in the queue until processed.
	TreeEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}

	e0 := received[0]
	if e0.Kind != arbor.EventNodeAdded || e0.Name != "Player" {
		t.Errorf("event 0: %+v", e0)
	}

	e1 := received[1]
	if e1.Kind != arbor.EventTreeStatusChanged || e1.Status != arbor.TreeRunning {
		t.Errorf("event 1: %+v", e1)
	}
}

func TestDonburiSink_ImplementsEventSink(t *testing.T) {
	world := donburi.NewWorld()
	var sink arbor.EventSink = NewDonburiSink(world)
	_ = sink // compile-time interface check
}

func TestDonburiSink_TreeIntegration(t *testing.T) {
	world := donburi.NewWorld()

	root := arbor.NewGroup("Root")
	tree := arbor.NewNodeTree(root, arbor.VerbosityOnlyPanics)
	tree.SetEventSink(NewDonburiSink(world))

	var received []arbor.TreeEvent
	TreeEventType.Subscribe(world, func(w donburi.World, e arbor.TreeEvent) {
		received = append(received, e)
	})

	root.AddChild(arbor.NewGroup("Item"))
	root.AddChild(arbor.NewGroup("Item")) // renamed to Item1
	if err := tree.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	TreeEventType.ProcessEvents(world)

	var added, renamed, statusChanged int
	for _, e := range received {
		switch e.Kind {
		case arbor.EventNodeAdded:
			added++
		case arbor.EventNodeRenamed:
			renamed++
			if e.Name != "Item1" {
				t.Errorf("renamed to %q, want Item1", e.Name)
			}
		case arbor.EventTreeStatusChanged:
			statusChanged++
			if e.Status != arbor.TreeRunning {
				t.Errorf("status changed to %v, want Running", e.Status)
			}
		}
	}
	if added != 2 || renamed != 1 || statusChanged != 1 {
		t.Errorf("got %d added, %d renamed, %d status changes; want 2, 1, 1",
			added, renamed, statusChanged)
	}
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var count1, count2 int
	TreeEventType.Subscribe(world, func(w donburi.World, e arbor.TreeEvent) {
		count1++
	})
	TreeEventType.Subscribe(world, func(w donburi.World, e arbor.TreeEvent) {
		count2++
	})

	sink.EmitTreeEvent(arbor.TreeEvent{Kind: arbor.EventNodeFreed})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}
