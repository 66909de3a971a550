package notify_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/avisame/internal/notify"
	"github.com/dropDatabas3/avisame/internal/notify/render"
)

// fakeSender registra cada Send y responde según fail/block.
type fakeSender struct {
	mu    sync.Mutex
	sent  []sentMail
	fail  error
	block time.Duration
}

type sentMail struct {
	to, subject, html, text string
}

func (s *fakeSender) Send(to, subject, html, text string) error {
	if s.block > 0 {
		time.Sleep(s.block)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, sentMail{to, subject, html, text})
	return nil
}

func (s *fakeSender) all() []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sentMail, len(s.sent))
	copy(out, s.sent)
	return out
}

func newTestDispatcher(t *testing.T, sender notify.Sender, opts ...notify.Option) *notify.Dispatcher {
	t.Helper()
	engine, err := render.New()
	if err != nil {
		t.Fatalf("render engine: %v", err)
	}
	d, err := notify.New(engine, sender, opts...)
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	return d
}

func TestNotify_ConnectionAccepted(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender, notify.WithFrontendURL("https://app.example.com"))

	ev := notify.NewEvent(notify.KindConnectionAccepted, "Jane Doe",
		notify.Recipient{Email: "bob@x.com", Name: "Bob"},
		map[string]string{"connections_url": "https://app.example.com/connections"},
	)

	res, err := d.Notify(context.Background(), ev)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !res.Delivered {
		t.Fatal("expected delivered")
	}
	if res.Subject != "Your connection request was accepted" {
		t.Fatalf("unexpected subject %q", res.Subject)
	}

	mails := sender.all()
	if len(mails) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mails))
	}
	if mails[0].to != "bob@x.com" {
		t.Fatalf("expected to=bob@x.com, got %q", mails[0].to)
	}
	if !strings.Contains(mails[0].html, "Jane Doe") || !strings.Contains(mails[0].text, "Jane Doe") {
		t.Fatal("actor name missing from rendered bodies")
	}
}

func TestNotify_MissingRequiredKey(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender)

	// post_comment sin post_content: contrato roto.
	ev := notify.NewEvent(notify.KindPostComment, "Jane",
		notify.Recipient{Email: "bob@x.com"},
		map[string]string{"post_url": "https://app.example.com/posts/1"},
	)

	_, err := d.Notify(context.Background(), ev)
	if !errors.Is(err, notify.ErrTemplate) {
		t.Fatalf("expected ErrTemplate, got %v", err)
	}
	if len(sender.all()) != 0 {
		t.Fatal("nothing should be sent on contract violation")
	}
}

func TestNotify_MissingActor(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender)

	ev := notify.NewEvent(notify.KindNewFollower, "",
		notify.Recipient{Email: "bob@x.com"},
		map[string]string{"profile_url": "https://app.example.com/u/jane"},
	)

	if _, err := d.Notify(context.Background(), ev); !errors.Is(err, notify.ErrTemplate) {
		t.Fatalf("expected ErrTemplate, got %v", err)
	}
}

func TestNotify_MissingRecipient(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender)

	ev := notify.NewEvent(notify.KindEmailVerification, "",
		notify.Recipient{},
		map[string]string{"otp": "123456", "name": "Bob"},
	)

	if _, err := d.Notify(context.Background(), ev); !errors.Is(err, notify.ErrTemplate) {
		t.Fatalf("expected ErrTemplate, got %v", err)
	}
}

func TestNotify_SenderError(t *testing.T) {
	sender := &fakeSender{fail: errors.New("smtp: connection refused")}
	d := newTestDispatcher(t, sender)

	ev := notify.NewEvent(notify.KindEmailVerification, "",
		notify.Recipient{Email: "bob@x.com", Name: "Bob"},
		map[string]string{"otp": "123456", "name": "Bob"},
	)

	res, err := d.Notify(context.Background(), ev)
	if !errors.Is(err, notify.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if res.Delivered {
		t.Fatal("should not be marked delivered")
	}
}

func TestNotify_SendTimeout(t *testing.T) {
	sender := &fakeSender{block: 200 * time.Millisecond}
	d := newTestDispatcher(t, sender, notify.WithSendTimeout(20*time.Millisecond))

	ev := notify.NewEvent(notify.KindEmailVerification, "",
		notify.Recipient{Email: "bob@x.com", Name: "Bob"},
		map[string]string{"otp": "123456", "name": "Bob"},
	)

	if _, err := d.Notify(context.Background(), ev); !errors.Is(err, notify.ErrDelivery) {
		t.Fatalf("expected ErrDelivery on timeout, got %v", err)
	}
}

func TestNotify_PreferenceSkip(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender,
		notify.WithPreferences(func(ev notify.Event) bool {
			return ev.Kind != notify.KindPostReaction
		}),
	)

	ev := notify.NewEvent(notify.KindPostReaction, "Jane",
		notify.Recipient{Email: "bob@x.com"},
		map[string]string{"post_content": "hola", "post_url": "https://x/p/1"},
	)

	res, err := d.Notify(context.Background(), ev)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !res.Skipped || res.Delivered {
		t.Fatalf("expected skipped, got %+v", res)
	}
	if len(sender.all()) != 0 {
		t.Fatal("skipped event should not send mail")
	}
}

func TestNotify_UnknownKind(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(t, sender)

	ev := notify.NewEvent(notify.Kind("carrier_pigeon"), "",
		notify.Recipient{Email: "bob@x.com"}, nil)

	if _, err := d.Notify(context.Background(), ev); !errors.Is(err, notify.ErrTemplate) {
		t.Fatalf("expected ErrTemplate, got %v", err)
	}
}

func TestValidateCatalog_AllKinds(t *testing.T) {
	engine, err := render.New()
	if err != nil {
		t.Fatalf("render engine: %v", err)
	}
	if err := notify.ValidateCatalog(engine); err != nil {
		t.Fatalf("catalog should validate against the default templates: %v", err)
	}
}
