package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/raido/internal/refresh"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishRefreshEvent_Progress(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishRefreshEvent(refresh.EventProgress, refresh.Progress{
		Percentage: 33,
		Message:    "Refreshed Spain (1/3)",
		Stage:      refresh.StageVisible,
	})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: refresh.progress") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"percentage":33`) {
			t.Errorf("missing payload in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishRefreshEvent_SweepThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First sweep broadcasts; the second within the window is dropped.
	b.PublishRefreshEvent(refresh.EventLinksUpdated, map[string]int{"checked": 10})
	b.PublishRefreshEvent(refresh.EventLinksUpdated, map[string]int{"checked": 11})
	// Progress events are never throttled.
	b.PublishRefreshEvent(refresh.EventProgress, refresh.Progress{Percentage: 50})

	time.Sleep(50 * time.Millisecond)
	sweeps := 0
	other := 0
loop:
	for {
		select {
		case msg := <-ch:
			if strings.Contains(string(msg), "links.updated") {
				sweeps++
			} else {
				other++
			}
		default:
			break loop
		}
	}

	if sweeps != 1 {
		t.Errorf("sweep events = %d, want 1 (throttled)", sweeps)
	}
	if other != 1 {
		t.Errorf("other events = %d, want 1", other)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: "notice", Data: map[string]string{"message": "background done"}})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: notice") {
		t.Errorf("body missing event: %q", body)
	}
	if !strings.Contains(body, "background done") {
		t.Errorf("body missing payload: %q", body)
	}
}
