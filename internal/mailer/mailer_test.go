package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []Message
	fail bool
}

func (f *fakeSender) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("provider down")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) delivered() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.sent))
	copy(out, f.sent)
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerDeliversQueuedMessages(t *testing.T) {
	sender := &fakeSender{}
	w := NewWorker(sender, 8, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	w.Enqueue(Message{To: "a@example.com", Subject: "hi", Body: "hello"})
	w.Enqueue(Message{To: "b@example.com", Subject: "hi", Body: "hello"})

	deadline := time.After(2 * time.Second)
	for len(sender.delivered()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected 2 deliveries, got %d", len(sender.delivered()))
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestWorkerDrainsQueueOnShutdown(t *testing.T) {
	sender := &fakeSender{}
	w := NewWorker(sender, 8, discardLogger())

	w.Enqueue(Message{To: "a@example.com"})
	w.Enqueue(Message{To: "b@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := len(sender.delivered()); got != 2 {
		t.Fatalf("expected queued mail to drain on shutdown, delivered %d", got)
	}
}

func TestEnqueueNeverBlocksWhenQueueIsFull(t *testing.T) {
	sender := &fakeSender{}
	w := NewWorker(sender, 1, discardLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			w.Enqueue(Message{To: "x@example.com"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestWorkerKeepsRunningAfterDeliveryFailure(t *testing.T) {
	sender := &fakeSender{fail: true}
	w := NewWorker(sender, 8, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	w.Enqueue(Message{To: "a@example.com"})
	time.Sleep(50 * time.Millisecond)

	sender.mu.Lock()
	sender.fail = false
	sender.mu.Unlock()

	w.Enqueue(Message{To: "b@example.com"})
	deadline := time.After(2 * time.Second)
	for len(sender.delivered()) < 1 {
		select {
		case <-deadline:
			t.Fatal("worker stopped delivering after a failure")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
