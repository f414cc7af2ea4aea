package tracelog

import (
	"strings"
	"sync"
	"testing"
)

func TestAddEntry(t *testing.T) {
	l := New(10)
	l.Add("trace", "hello")
	entries := l.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Kind != "trace" || entries[0].Message != "hello" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
}

func TestScrollbackCap(t *testing.T) {
	l := New(25)
	for i := 0; i < 75; i++ {
		l.Add("trace", "msg")
	}
	if l.Len() != 25 {
		t.Errorf("expected 25 entries, got %d", l.Len())
	}
	if New(0).scrollback != DefaultScrollback {
		t.Error("non-positive scrollback should use the default")
	}
}

func TestMessageKeptVerbatim(t *testing.T) {
	l := New(5)
	payload := `{"wiredTigerEBPF":{"frequency":{"a":1}}}`
	l.Add("trace", payload)
	if got := l.Entries()[0].Message; got != payload {
		t.Errorf("message = %q, want %q", got, payload)
	}
}

func TestScroll(t *testing.T) {
	l := New(100)
	for i := 0; i < 20; i++ {
		l.Add("info", "msg")
	}
	if l.Offset() != 0 {
		t.Fatal("expected offset 0 after adds")
	}

	l.Scroll(-5)
	if l.Offset() != 5 {
		t.Errorf("expected offset 5, got %d", l.Offset())
	}
	l.Scroll(3)
	if l.Offset() != 2 {
		t.Errorf("expected offset 2, got %d", l.Offset())
	}
	l.Scroll(10)
	if l.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", l.Offset())
	}
	l.Scroll(-100)
	if l.Offset() != 19 {
		t.Errorf("expected offset capped at 19, got %d", l.Offset())
	}
}

func TestAddKeepsScrolledView(t *testing.T) {
	l := New(100)
	for i := 0; i < 10; i++ {
		l.Add("info", "msg")
	}
	l.Scroll(-3)
	l.Add("trace", "new")
	if l.Offset() != 4 {
		t.Errorf("expected offset 4, got %d", l.Offset())
	}
}

func TestConcurrentAdd(t *testing.T) {
	l := New(1000)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				l.Add("info", "msg")
			}
		}()
	}
	wg.Wait()
	if l.Len() != 400 {
		t.Errorf("expected 400 entries, got %d", l.Len())
	}
}

func TestViewEmpty(t *testing.T) {
	v := New(10).View(80, 20, false)
	if !strings.Contains(v, "No trace output") {
		t.Error("empty view should say there is no output")
	}
}

func TestViewWithEntries(t *testing.T) {
	l := New(10)
	l.Add("trace", "datagram one")
	l.Add("error", "listener failure")
	v := l.View(100, 20, true)
	if !strings.Contains(v, "datagram one") || !strings.Contains(v, "listener failure") {
		t.Errorf("view missing entries:\n%s", v)
	}
	if !strings.Contains(v, "2 lines") {
		t.Error("view should show the line count")
	}
}
