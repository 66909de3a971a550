package otp_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropDatabas3/avisame/internal/otp"
	"github.com/dropDatabas3/avisame/internal/otp/store/memory"
)

func newTestIssuer(t *testing.T, opts ...otp.IssuerOption) (*otp.Issuer, *memory.Mem) {
	t.Helper()
	mem := memory.New()
	return otp.NewIssuer(mem, opts...), mem
}

func TestIssueAndValidate_Lifecycle(t *testing.T) {
	ctx := context.Background()
	issuer, _ := newTestIssuer(t)

	code, err := issuer.Issue(ctx, "user-1", otp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(code.Code) != otp.CodeLength {
		t.Fatalf("expected %d-digit code, got %q", otp.CodeLength, code.Code)
	}
	for _, r := range code.Code {
		if r < '0' || r > '9' {
			t.Fatalf("non-numeric code: %q", code.Code)
		}
	}
	if got := code.ExpiresAt.Sub(code.IssuedAt); got != otp.DefaultTTL {
		t.Fatalf("expected ttl %v, got %v", otp.DefaultTTL, got)
	}

	res, err := issuer.Validate(ctx, "user-1", otp.PurposeEmailVerification, code.Code)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("expected accepted, got reason %q", res.Reason)
	}
}

func TestValidate_SingleUse(t *testing.T) {
	ctx := context.Background()
	issuer, _ := newTestIssuer(t)

	code, err := issuer.Issue(ctx, "user-1", otp.PurposePasswordReset)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if res, _ := issuer.Validate(ctx, "user-1", otp.PurposePasswordReset, code.Code); !res.Accepted {
		t.Fatalf("first validate should accept, got %q", res.Reason)
	}
	// Replay del mismo código: consumido cuenta como MISMATCH, no EXPIRED.
	res, err := issuer.Validate(ctx, "user-1", otp.PurposePasswordReset, code.Code)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Accepted || res.Reason != otp.ReasonMismatch {
		t.Fatalf("expected MISMATCH on replay, got accepted=%v reason=%q", res.Accepted, res.Reason)
	}
}

func TestIssue_SupersedesPrevious(t *testing.T) {
	ctx := context.Background()
	issuer, _ := newTestIssuer(t)

	first, err := issuer.Issue(ctx, "user-1", otp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := issuer.Issue(ctx, "user-1", otp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if first.Code == second.Code {
		t.Skip("collision entre códigos random, re-correr")
	}

	// El primero quedó invalidado por la supersesión.
	res, _ := issuer.Validate(ctx, "user-1", otp.PurposeEmailVerification, first.Code)
	if res.Accepted || res.Reason != otp.ReasonMismatch {
		t.Fatalf("superseded code should be MISMATCH, got accepted=%v reason=%q", res.Accepted, res.Reason)
	}
	// El segundo sigue vigente.
	if res, _ := issuer.Validate(ctx, "user-1", otp.PurposeEmailVerification, second.Code); !res.Accepted {
		t.Fatalf("latest code should accept, got %q", res.Reason)
	}
}

func TestIssue_PurposesAreIndependent(t *testing.T) {
	ctx := context.Background()
	issuer, _ := newTestIssuer(t)

	verify, _ := issuer.Issue(ctx, "user-1", otp.PurposeEmailVerification)
	reset, _ := issuer.Issue(ctx, "user-1", otp.PurposePasswordReset)

	// Emitir para un propósito no pisa al otro.
	if res, _ := issuer.Validate(ctx, "user-1", otp.PurposeEmailVerification, verify.Code); !res.Accepted {
		t.Fatalf("verification code should accept, got %q", res.Reason)
	}
	if res, _ := issuer.Validate(ctx, "user-1", otp.PurposePasswordReset, reset.Code); !res.Accepted {
		t.Fatalf("reset code should accept, got %q", res.Reason)
	}
}

func TestValidate_Expired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	issuer, _ := newTestIssuer(t, otp.WithClock(func() time.Time { return *clock }))

	code, err := issuer.Issue(ctx, "user-1", otp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Un segundo después del TTL.
	later := now.Add(otp.DefaultTTL + time.Second)
	clock = &later

	res, err := issuer.Validate(ctx, "user-1", otp.PurposeEmailVerification, code.Code)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Accepted || res.Reason != otp.ReasonExpired {
		t.Fatalf("expected EXPIRED, got accepted=%v reason=%q", res.Accepted, res.Reason)
	}
}

func TestValidate_ExpiredBeatsWrongCode(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	issuer, _ := newTestIssuer(t, otp.WithClock(func() time.Time { return *clock }))

	code, _ := issuer.Issue(ctx, "user-1", otp.PurposeEmailVerification)

	later := now.Add(otp.DefaultTTL + time.Minute)
	clock = &later

	// Código equivocado + registro vencido: MISMATCH gana (el código no
	// coincide, da igual que esté vencido).
	wrong := "000000"
	if wrong == code.Code {
		wrong = "000001"
	}
	res, _ := issuer.Validate(ctx, "user-1", otp.PurposeEmailVerification, wrong)
	if res.Accepted || res.Reason != otp.ReasonMismatch {
		t.Fatalf("expected MISMATCH for wrong code, got accepted=%v reason=%q", res.Accepted, res.Reason)
	}
}

func TestValidate_UnknownSubject(t *testing.T) {
	ctx := context.Background()
	issuer, _ := newTestIssuer(t)

	res, err := issuer.Validate(ctx, "nobody", otp.PurposeEmailVerification, "123456")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Accepted || res.Reason != otp.ReasonMismatch {
		t.Fatalf("expected MISMATCH, got accepted=%v reason=%q", res.Accepted, res.Reason)
	}
}

func TestIssuer_InvalidInputs(t *testing.T) {
	ctx := context.Background()
	issuer, _ := newTestIssuer(t)

	if _, err := issuer.Issue(ctx, "", otp.PurposeEmailVerification); err != otp.ErrInvalidSubject {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
	if _, err := issuer.Issue(ctx, "user-1", otp.Purpose("login")); err != otp.ErrInvalidPurpose {
		t.Fatalf("expected ErrInvalidPurpose, got %v", err)
	}
	if _, err := issuer.Validate(ctx, "  ", otp.PurposeEmailVerification, "123456"); err != otp.ErrInvalidSubject {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
}

func TestWithTTL(t *testing.T) {
	ctx := context.Background()
	issuer, _ := newTestIssuer(t, otp.WithTTL(time.Minute))

	code, err := issuer.Issue(ctx, "user-1", otp.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got := code.ExpiresAt.Sub(code.IssuedAt); got != time.Minute {
		t.Fatalf("expected ttl 1m, got %v", got)
	}
}

func TestValidate_ConcurrentSingleAccept(t *testing.T) {
	ctx := context.Background()
	issuer, _ := newTestIssuer(t)

	code, err := issuer.Issue(ctx, "user42", otp.PurposePasswordReset)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// N validaciones concurrentes del mismo código correcto: el lock por
	// clave + check-and-mark garantizan exactamente una aceptada, el resto
	// MISMATCH (replay de consumido).
	const n = 8
	var wg sync.WaitGroup
	var accepted int32
	for j := 0; j < n; j++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := issuer.Validate(ctx, "user42", otp.PurposePasswordReset, code.Code)
			if err != nil {
				t.Errorf("validate: %v", err)
				return
			}
			if res.Accepted {
				atomic.AddInt32(&accepted, 1)
			} else if res.Reason != otp.ReasonMismatch {
				t.Errorf("expected MISMATCH, got %q", res.Reason)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Fatalf("expected exactly 1 accept, got %d", accepted)
	}
}

func TestIssue_ConcurrentOneLiveCode(t *testing.T) {
	ctx := context.Background()
	issuer, mem := newTestIssuer(t)

	const n = 16
	var wg sync.WaitGroup
	codes := make(chan string, n)
	for j := 0; j < n; j++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := issuer.Issue(ctx, "user42", otp.PurposeEmailVerification)
			if err != nil {
				t.Errorf("issue: %v", err)
				return
			}
			codes <- c.Code
		}()
	}
	wg.Wait()
	close(codes)

	live, ok := mem.Peek("user42", otp.PurposeEmailVerification)
	if !ok {
		t.Fatal("no stored code after concurrent issues")
	}

	// Validar cada código emitido (sin repetir): acepta exactamente el que
	// quedó vigente, los pisados son MISMATCH.
	accepted := 0
	seen := make(map[string]bool, n)
	for c := range codes {
		if seen[c] {
			continue
		}
		seen[c] = true
		res, err := issuer.Validate(ctx, "user42", otp.PurposeEmailVerification, c)
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if res.Accepted {
			accepted++
			if c != live.Code {
				t.Fatalf("accepted %q but stored code is %q", c, live.Code)
			}
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly 1 live code, got %d accepted", accepted)
	}
}

func TestParsePurpose(t *testing.T) {
	if _, err := otp.ParsePurpose("email_verification"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := otp.ParsePurpose("password_reset"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := otp.ParsePurpose("magic_link"); err == nil {
		t.Fatal("expected error for unknown purpose")
	}
}
