package otpctl

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropDatabas3/avisame/internal/flows"
	"github.com/dropDatabas3/avisame/internal/http/dto"
	"github.com/dropDatabas3/avisame/internal/notify"
	"github.com/dropDatabas3/avisame/internal/otp"
	"github.com/dropDatabas3/avisame/internal/otp/store/memory"
)

type captureQueue struct{ events []notify.Event }

func (q *captureQueue) Enqueue(ev notify.Event) bool {
	q.events = append(q.events, ev)
	return true
}

func newTestController() (*Controller, *captureQueue) {
	q := &captureQueue{}
	return New(flows.New(otp.NewIssuer(memory.New()), q)), q
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestIssue_OK(t *testing.T) {
	c, q := newTestController()

	rec := postJSON(t, c.Issue, dto.IssueRequest{
		SubjectID: "user-1",
		Purpose:   "email_verification",
		Email:     "bob@x.com",
		Name:      "Bob",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	var out dto.IssueResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.SubjectID != "user-1" || out.Purpose != "email_verification" {
		t.Fatalf("unexpected response %+v", out)
	}
	if out.ExpiresAt.IsZero() {
		t.Fatal("expires_at missing")
	}
	// El código no viaja en la respuesta, sólo por email.
	if bytes.Contains(rec.Body.Bytes(), []byte(`"code"`)) {
		t.Fatal("response must not leak the code")
	}
	if len(q.events) != 1 {
		t.Fatalf("expected 1 enqueued email, got %d", len(q.events))
	}
}

func TestIssue_BadPurpose(t *testing.T) {
	c, _ := newTestController()

	rec := postJSON(t, c.Issue, dto.IssueRequest{
		SubjectID: "user-1",
		Purpose:   "login",
		Email:     "bob@x.com",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestIssue_MissingFields(t *testing.T) {
	c, _ := newTestController()

	rec := postJSON(t, c.Issue, dto.IssueRequest{Purpose: "email_verification", Email: "b@x.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing subject: status %d", rec.Code)
	}
	rec = postJSON(t, c.Issue, dto.IssueRequest{Purpose: "email_verification", SubjectID: "u1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing email: status %d", rec.Code)
	}
}

func TestValidate_FullCycle(t *testing.T) {
	c, q := newTestController()

	rec := postJSON(t, c.Issue, dto.IssueRequest{
		SubjectID: "user-1",
		Purpose:   "password_reset",
		Email:     "bob@x.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("issue status %d", rec.Code)
	}
	code := q.events[0].Payload[notify.VarOTP]

	rec = postJSON(t, c.Validate, dto.ValidateRequest{
		SubjectID: "user-1",
		Purpose:   "password_reset",
		Code:      code,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("validate status %d", rec.Code)
	}
	var out dto.ValidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Accepted || out.Reason != "" {
		t.Fatalf("expected accepted, got %+v", out)
	}

	// Replay: 200 con MISMATCH, nunca 4xx.
	rec = postJSON(t, c.Validate, dto.ValidateRequest{
		SubjectID: "user-1",
		Purpose:   "password_reset",
		Code:      code,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("replay status %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Accepted || out.Reason != "MISMATCH" {
		t.Fatalf("expected MISMATCH, got %+v", out)
	}
}

func TestValidate_BadRequest(t *testing.T) {
	c, _ := newTestController()

	rec := postJSON(t, c.Validate, dto.ValidateRequest{SubjectID: "u1", Purpose: "email_verification"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing code: status %d", rec.Code)
	}
}
