package bridge

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestPushWithoutSinkIsDiscarded(t *testing.T) {
	b := New()

	// Must not panic or block.
	b.Push("usage", json.RawMessage(`{"n":1}`))

	events := b.Install()
	select {
	case ev := <-events:
		t.Errorf("got event %q pushed before Install, want none", ev.Name)
	default:
	}
}

func TestPushDeliversInOrder(t *testing.T) {
	b := New()
	events := b.Install()

	b.Push("customer", json.RawMessage(`{"id":42}`))
	b.Push("usage", json.RawMessage(`{"n":10}`))
	b.Push("complete", nil)

	want := []string{"customer", "usage", "complete"}
	for _, name := range want {
		select {
		case ev := <-events:
			if ev.Name != name {
				t.Errorf("event = %q, want %q", ev.Name, name)
			}
		default:
			t.Fatalf("missing event %q", name)
		}
	}
}

func TestPushDropsWhenFull(t *testing.T) {
	b := New()
	events := b.Install()

	for i := 0; i < capacity+5; i++ {
		b.Push("spam", json.RawMessage(fmt.Sprintf(`{"i":%d}`, i)))
	}

	received := 0
	for {
		select {
		case <-events:
			received++
			continue
		default:
		}
		break
	}

	if received != capacity {
		t.Errorf("received %d events, want %d (overflow dropped)", received, capacity)
	}
}

func TestUninstallDetachesSink(t *testing.T) {
	b := New()
	events := b.Install()
	b.Uninstall()

	b.Push("late", nil)

	select {
	case ev := <-events:
		t.Errorf("got event %q after Uninstall, want none", ev.Name)
	default:
	}
}

func TestInstallReplacesSink(t *testing.T) {
	b := New()
	old := b.Install()
	fresh := b.Install()

	b.Push("usage", nil)

	select {
	case <-old:
		t.Error("event landed on the abandoned sink")
	default:
	}

	select {
	case ev := <-fresh:
		if ev.Name != "usage" {
			t.Errorf("event = %q, want usage", ev.Name)
		}
	default:
		t.Error("event missing from the fresh sink")
	}
}
