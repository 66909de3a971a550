// avisamectl: CLI para operar el servicio vía su API HTTP.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	tokens "github.com/dropDatabas3/avisame/internal/security/token"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) post(path string, payload any) (int, []byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("AVISAME_URL", "http://localhost:8080")
		bearer  = envOr("AVISAME_TOKEN", "")
		out     = envOr("AVISAME_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "avisamectl",
		Short: "CLI para el servicio de verificación y notificaciones",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env AVISAME_URL)")
	root.PersistentFlags().StringVar(&bearer, "token", bearer, "Service token Bearer (env AVISAME_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cl.BaseURL, cl.Token, cl.OutFormat = baseURL, bearer, out
	}

	// ─── otp ───
	otpCmd := &cobra.Command{Use: "otp", Short: "Emisión y validación de códigos"}

	var issueSubject, issuePurpose, issueEmail, issueName string
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Emitir un código para un subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.post("/v1/otp/issue", map[string]string{
				"subject_id": issueSubject,
				"purpose":    issuePurpose,
				"email":      issueEmail,
				"name":       issueName,
			})
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&issueSubject, "subject", "", "subject_id (requerido)")
	issueCmd.Flags().StringVar(&issuePurpose, "purpose", "email_verification", "email_verification|password_reset")
	issueCmd.Flags().StringVar(&issueEmail, "email", "", "email destino (requerido)")
	issueCmd.Flags().StringVar(&issueName, "name", "", "nombre del destinatario")
	_ = issueCmd.MarkFlagRequired("subject")
	_ = issueCmd.MarkFlagRequired("email")

	var valSubject, valPurpose, valCode string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validar un código",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.post("/v1/otp/validate", map[string]string{
				"subject_id": valSubject,
				"purpose":    valPurpose,
				"code":       valCode,
			})
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}
	validateCmd.Flags().StringVar(&valSubject, "subject", "", "subject_id (requerido)")
	validateCmd.Flags().StringVar(&valPurpose, "purpose", "email_verification", "email_verification|password_reset")
	validateCmd.Flags().StringVar(&valCode, "code", "", "código a validar (requerido)")
	_ = validateCmd.MarkFlagRequired("subject")
	_ = validateCmd.MarkFlagRequired("code")

	otpCmd.AddCommand(issueCmd, validateCmd)

	// ─── notify ───
	var (
		nKind, nActor, nEmail, nName string
		nPayload                     []string
		nSync                        bool
	)
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Enviar un evento de notificación",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{}
			for _, kv := range nPayload {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("payload inválido %q (esperado clave=valor)", kv)
				}
				payload[k] = v
			}
			status, body, err := cl.post("/v1/notify", map[string]any{
				"kind":       nKind,
				"actor_name": nActor,
				"recipient":  map[string]string{"email": nEmail, "name": nName},
				"payload":    payload,
				"sync":       nSync,
			})
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}
	notifyCmd.Flags().StringVar(&nKind, "kind", "", "tipo de evento (requerido)")
	notifyCmd.Flags().StringVar(&nActor, "actor", "", "nombre del actor")
	notifyCmd.Flags().StringVar(&nEmail, "email", "", "email destino (requerido)")
	notifyCmd.Flags().StringVar(&nName, "name", "", "nombre del destinatario")
	notifyCmd.Flags().StringArrayVar(&nPayload, "payload", nil, "variables clave=valor (repetible)")
	notifyCmd.Flags().BoolVar(&nSync, "sync", false, "despachar inline en vez de encolar")
	_ = notifyCmd.MarkFlagRequired("kind")
	_ = notifyCmd.MarkFlagRequired("email")

	// ─── token ───
	var tSecret, tIssuer, tSubject string
	var tTTL time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mintear un service token para llamar al API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tSecret == "" {
				return fmt.Errorf("falta el secreto (--secret o env SERVICE_SECRET)")
			}
			tok, err := tokens.MintServiceToken(tSecret, tIssuer, tSubject, tTTL)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&tSecret, "secret", envOr("SERVICE_SECRET", ""), "secreto compartido HS256 (env SERVICE_SECRET)")
	tokenCmd.Flags().StringVar(&tIssuer, "issuer", "avisame", "issuer del token")
	tokenCmd.Flags().StringVar(&tSubject, "subject", "avisamectl", "subject del token")
	tokenCmd.Flags().DurationVar(&tTTL, "ttl", time.Hour, "vigencia del token")

	root.AddCommand(otpCmd, notifyCmd, tokenCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
