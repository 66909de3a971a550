// Package dto define los requests/responses del API.
package dto

import "time"

// IssueRequest es el body de POST /v1/otp/issue.
type IssueRequest struct {
	SubjectID string `json:"subject_id"`
	Purpose   string `json:"purpose"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
}

// IssueResponse confirma la emisión. El código viaja por email, nunca por acá.
type IssueResponse struct {
	SubjectID string    `json:"subject_id"`
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidateRequest es el body de POST /v1/otp/validate.
type ValidateRequest struct {
	SubjectID string `json:"subject_id"`
	Purpose   string `json:"purpose"`
	Code      string `json:"code"`
}

// ValidateResponse es el outcome de la validación. Reason solo viene cuando
// accepted=false: "EXPIRED" o "MISMATCH".
type ValidateResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}
