package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/avisame/internal/notify"
)

// flakySender falla las primeras failFirst entregas y después acepta.
type flakySender struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	delivered []string
}

func (s *flakySender) Send(to, subject, html, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failFirst {
		return errors.New("smtp: temporary failure")
	}
	s.delivered = append(s.delivered, to)
	return nil
}

func (s *flakySender) stats() (calls int, delivered []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]string(nil), s.delivered...)
}

func verificationEvent(email string) notify.Event {
	return notify.NewEvent(notify.KindEmailVerification, "",
		notify.Recipient{Email: email, Name: "Bob"},
		map[string]string{"otp": "123456", "name": "Bob"},
	)
}

func TestQueue_DeliversEnqueuedEvent(t *testing.T) {
	sender := &flakySender{}
	d := newTestDispatcher(t, sender)
	q := notify.NewQueue(d, notify.QueueConfig{Size: 8, Workers: 2, RetryDelay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	if !q.Enqueue(verificationEvent("bob@x.com")) {
		t.Fatal("enqueue should succeed")
	}

	waitFor(t, func() bool {
		_, delivered := sender.stats()
		return len(delivered) == 1
	})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestQueue_RetriesOnDeliveryFailure(t *testing.T) {
	sender := &flakySender{failFirst: 2}
	d := newTestDispatcher(t, sender)
	q := notify.NewQueue(d, notify.QueueConfig{
		Size: 8, Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = q.Run(ctx) }()

	q.Enqueue(verificationEvent("bob@x.com"))

	waitFor(t, func() bool {
		calls, delivered := sender.stats()
		return calls == 3 && len(delivered) == 1
	})
}

func TestQueue_NoRetryOnTemplateError(t *testing.T) {
	sender := &flakySender{}
	d := newTestDispatcher(t, sender)
	q := notify.NewQueue(d, notify.QueueConfig{
		Size: 8, Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = q.Run(ctx) }()

	// Sin otp en el payload: TEMPLATE_ERROR, se descarta sin reintentos.
	ev := notify.NewEvent(notify.KindEmailVerification, "",
		notify.Recipient{Email: "bob@x.com"},
		map[string]string{"name": "Bob"},
	)
	q.Enqueue(ev)

	// Después se encola uno válido: si el inválido hubiera bloqueado al
	// worker con reintentos, este tardaría mucho más.
	q.Enqueue(verificationEvent("ok@x.com"))

	waitFor(t, func() bool {
		calls, delivered := sender.stats()
		return calls == 1 && len(delivered) == 1 && delivered[0] == "ok@x.com"
	})
}

func TestQueue_EnqueueDropsWhenFull(t *testing.T) {
	sender := &flakySender{}
	d := newTestDispatcher(t, sender)
	// Sin Run: nadie consume, el buffer se llena.
	q := notify.NewQueue(d, notify.QueueConfig{Size: 2, Workers: 1})

	if !q.Enqueue(verificationEvent("a@x.com")) || !q.Enqueue(verificationEvent("b@x.com")) {
		t.Fatal("first two enqueues should fit")
	}
	if q.Enqueue(verificationEvent("c@x.com")) {
		t.Fatal("third enqueue should drop, buffer full")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
