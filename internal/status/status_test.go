package status_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"ripwatch/internal/status"
)

func TestPublishTerminalMovesCurrentToCompleted(t *testing.T) {
	sink := status.NewSink()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	sink.Publish(status.Snapshot{
		SessionID: "a",
		Device:    "/dev/sr0",
		State:     "extracting",
		UpdatedAt: base,
	})
	sink.Publish(status.Snapshot{
		SessionID: "a",
		Device:    "/dev/sr0",
		State:     "completed",
		Terminal:  true,
		UpdatedAt: base.Add(time.Minute),
	})
	sink.Publish(status.Snapshot{
		SessionID: "b",
		Device:    "/dev/sr0",
		State:     "classifying",
		UpdatedAt: base.Add(2 * time.Minute),
	})

	current, last := sink.Read()
	if current == nil || current.SessionID != "b" {
		t.Fatalf("current = %+v, want session b", current)
	}
	if last == nil || last.SessionID != "a" {
		t.Fatalf("last completed = %+v, want session a", last)
	}
	if !last.Terminal || last.FinishedAt.IsZero() {
		t.Errorf("terminal snapshot missing finish marker: %+v", last)
	}
}

func TestReadMergesAcrossDevices(t *testing.T) {
	sink := status.NewSink()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	sink.Publish(status.Snapshot{SessionID: "sr0", Device: "/dev/sr0", State: "extracting", UpdatedAt: base})
	sink.Publish(status.Snapshot{SessionID: "sr1", Device: "/dev/sr1", State: "classifying", UpdatedAt: base.Add(time.Second)})

	current, _ := sink.Read()
	if current == nil || current.SessionID != "sr1" {
		t.Fatalf("current = %+v, want most recently updated", current)
	}

	sr0Current, _ := sink.Device("/dev/sr0")
	if sr0Current == nil || sr0Current.SessionID != "sr0" {
		t.Fatalf("device view = %+v", sr0Current)
	}

	active := sink.Active()
	if len(active) != 2 || active[0].Device != "/dev/sr0" || active[1].Device != "/dev/sr1" {
		t.Errorf("active = %+v", active)
	}
}

func TestSnapshotsAreImmutableToCallers(t *testing.T) {
	sink := status.NewSink()
	published := status.Snapshot{
		SessionID: "a",
		Device:    "/dev/sr0",
		State:     "finalizing",
		Files:     []string{"one.mkv"},
		UpdatedAt: time.Now(),
	}
	sink.Publish(published)

	published.Files[0] = "mutated.mkv"
	published.State = "mutated"

	current, _ := sink.Read()
	if current.Files[0] != "one.mkv" || current.State != "finalizing" {
		t.Errorf("published snapshot aliased caller memory: %+v", current)
	}

	current.Files[0] = "mutated-again.mkv"
	again, _ := sink.Read()
	if again.Files[0] != "one.mkv" {
		t.Errorf("read snapshot aliased sink memory: %+v", again)
	}
}

func TestConcurrentReadersNeverSeePartialState(t *testing.T) {
	sink := status.NewSink()
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			id := fmt.Sprintf("s%d", i)
			sink.Publish(status.Snapshot{SessionID: id, Device: "/dev/sr0", State: "extracting", UpdatedAt: time.Now()})
			sink.Publish(status.Snapshot{SessionID: id, Device: "/dev/sr0", State: "completed", Terminal: true, UpdatedAt: time.Now()})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				current, last := sink.Read()
				if current != nil && current.Terminal {
					t.Error("terminal snapshot observed in current slot")
					return
				}
				if last != nil && !last.Terminal {
					t.Error("non-terminal snapshot observed in completed slot")
					return
				}
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(stop)
	wg.Wait()
}
