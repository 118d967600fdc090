package event

import (
	"testing"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()

	var received []Event
	bus.Subscribe("task.claimed", func(e Event) {
		received = append(received, e)
	})

	bus.Publish(NewTaskClaimedEvent("task-1", "agent_1"))

	if len(received) != 1 {
		t.Fatalf("received %d events, want 1", len(received))
	}
	ev, ok := received[0].(TaskClaimedEvent)
	if !ok {
		t.Fatalf("received %T, want TaskClaimedEvent", received[0])
	}
	if ev.TaskID != "task-1" || ev.AgentID != "agent_1" {
		t.Errorf("event = %+v, want task-1/agent_1", ev)
	}
	if ev.Timestamp().IsZero() {
		t.Error("Timestamp() is zero")
	}
}

func TestPublishIgnoresOtherTypes(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe("agent.registered", func(Event) { called = true })

	bus.Publish(NewTaskClaimedEvent("task-1", "agent_1"))

	if called {
		t.Error("handler for agent.registered received a task.claimed event")
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewBus()

	var types []string
	bus.SubscribeAll(func(e Event) {
		types = append(types, e.EventType())
	})

	bus.Publish(NewAgentRegisteredEvent("agent_1", 1, "s1"))
	bus.Publish(NewTaskClaimedEvent("task-1", "agent_1"))
	bus.Publish(NewCleanupEvent([]string{"agent_2"}))

	want := []string{"agent.registered", "task.claimed", "agent.cleanup"}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("types[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	id := bus.Subscribe("task.claimed", func(Event) { count++ })

	bus.Publish(NewTaskClaimedEvent("task-1", "agent_1"))
	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe() = false, want true")
	}
	bus.Publish(NewTaskClaimedEvent("task-2", "agent_1"))

	if count != 1 {
		t.Errorf("handler called %d times, want 1", count)
	}
	if bus.Unsubscribe(id) {
		t.Error("Unsubscribe() of removed ID = true, want false")
	}
}

func TestPanickingHandlerDoesNotBlockDelivery(t *testing.T) {
	bus := NewBus()

	bus.Subscribe("task.claimed", func(Event) { panic("boom") })

	delivered := false
	bus.Subscribe("task.claimed", func(Event) { delivered = true })

	bus.Publish(NewTaskClaimedEvent("task-1", "agent_1"))

	if !delivered {
		t.Error("handler after panicking handler never ran")
	}
}

func TestClearAndSubscriptionCount(t *testing.T) {
	bus := NewBus()

	bus.Subscribe("a", func(Event) {})
	bus.Subscribe("b", func(Event) {})
	bus.SubscribeAll(func(Event) {})

	if got := bus.SubscriptionCount(); got != 3 {
		t.Errorf("SubscriptionCount() = %d, want 3", got)
	}

	bus.Clear()
	if got := bus.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() after Clear = %d, want 0", got)
	}
}
