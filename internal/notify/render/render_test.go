package render

import (
	"strings"
	"testing"
)

func TestRender_EmailVerification(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	html, text, err := e.Render("email_verification", map[string]string{
		"subject":      "Verify your email address",
		"name":         "Bob",
		"otp":          "482915",
		"frontend_url": "https://app.example.com",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, body := range []string{html, text} {
		if !strings.Contains(body, "482915") {
			t.Fatal("otp missing from body")
		}
		if !strings.Contains(body, "Bob") {
			t.Fatal("name missing from body")
		}
		if !strings.Contains(body, "https://app.example.com/verify-email") {
			t.Fatal("frontend link missing from body")
		}
	}
}

func TestRender_MissingVarFails(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// Sin otp: el template tiene que fallar, nunca renderizar un hueco.
	_, _, err = e.Render("email_verification", map[string]string{
		"subject":      "Verify your email address",
		"name":         "Bob",
		"frontend_url": "https://app.example.com",
	})
	if err == nil {
		t.Fatal("expected error for missing template variable")
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, _, err := e.Render("carrier_pigeon", nil); err == nil {
		t.Fatal("expected error for unknown template id")
	}
}

func TestRender_HTMLEscaping(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	html, text, err := e.Render("post_comment", map[string]string{
		"subject":        "New comment on your post",
		"recipient_name": "Bob",
		"actor_name":     "<script>alert(1)</script>",
		"post_content":   "hola",
		"post_url":       "https://app.example.com/posts/1",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatal("html body must escape markup in variables")
	}
	if !strings.Contains(text, "<script>alert(1)</script>") {
		t.Fatal("text body should carry the raw value")
	}
}
