package event

import "testing"

type spawned struct{ id uint64 }
type removed struct{ id uint64 }

func TestEventsWaitForFlush(t *testing.T) {
	b := NewBus()
	var got []uint64
	Subscribe(b, func(e spawned) { got = append(got, e.id) })

	Emit(b, spawned{id: 1})
	Emit(b, spawned{id: 2})
	if len(got) != 0 {
		t.Fatalf("handler ran before Flush: %v", got)
	}
	if b.Pending() != 2 {
		t.Errorf("Pending = %d, want 2", b.Pending())
	}

	if n := b.Flush(); n != 2 {
		t.Errorf("Flush delivered %d, want 2", n)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v, want [1 2]", got)
	}

	// A second flush must not redeliver.
	b.Flush()
	if len(got) != 2 {
		t.Errorf("events redelivered: %v", got)
	}
}

func TestHandlersOnlySeeTheirType(t *testing.T) {
	b := NewBus()
	var spawns, removes int
	Subscribe(b, func(spawned) { spawns++ })
	Subscribe(b, func(removed) { removes++ })

	Emit(b, spawned{id: 1})
	Emit(b, removed{id: 1})
	Emit(b, removed{id: 2})
	b.Flush()

	if spawns != 1 || removes != 2 {
		t.Errorf("spawns=%d removes=%d, want 1 and 2", spawns, removes)
	}
}

func TestEmitDuringDispatchIsDeferred(t *testing.T) {
	b := NewBus()
	var removes int
	Subscribe(b, func(e spawned) { Emit(b, removed{id: e.id}) })
	Subscribe(b, func(removed) { removes++ })

	Emit(b, spawned{id: 1})
	b.Flush()
	if removes != 0 {
		t.Fatalf("event emitted by a handler delivered in the same flush")
	}
	b.Flush()
	if removes != 1 {
		t.Errorf("removes = %d after second flush, want 1", removes)
	}
}

func TestEmitOnNilBus(t *testing.T) {
	var b *Bus
	Emit(b, spawned{id: 1}) // must not panic
}
