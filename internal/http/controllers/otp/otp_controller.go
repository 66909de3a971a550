// Package otpctl contiene los controllers del Code Issuer.
package otpctl

import (
	"net/http"

	"github.com/dropDatabas3/avisame/internal/flows"
	httperrors "github.com/dropDatabas3/avisame/internal/http/errors"
	"github.com/dropDatabas3/avisame/internal/http/dto"
	"github.com/dropDatabas3/avisame/internal/http/helpers"
	"github.com/dropDatabas3/avisame/internal/observability/logger"
	"github.com/dropDatabas3/avisame/internal/otp"
)

// Controller maneja emisión y validación de códigos sobre los flujos.
type Controller struct {
	flows *flows.Flows
}

func New(f *flows.Flows) *Controller {
	return &Controller{flows: f}
}

// Issue maneja POST /v1/otp/issue
func (c *Controller) Issue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Op("OTPController.Issue"))

	var in dto.IssueRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}

	purpose, err := otp.ParsePurpose(in.Purpose)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("purpose must be email_verification or password_reset"))
		return
	}
	if in.SubjectID == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("subject_id required"))
		return
	}
	if in.Email == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("email required"))
		return
	}

	var code *otp.Code
	switch purpose {
	case otp.PurposeEmailVerification:
		code, err = c.flows.StartVerify(ctx, in.SubjectID, in.Email, in.Name)
	case otp.PurposePasswordReset:
		code, err = c.flows.StartReset(ctx, in.SubjectID, in.Email, in.Name)
	}
	if err != nil {
		log.Error("issue failed", logger.SubjectID(in.SubjectID), logger.Purpose(in.Purpose), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	log.Info("code issued",
		logger.SubjectID(in.SubjectID),
		logger.Purpose(in.Purpose),
	)
	helpers.WriteJSON(w, http.StatusCreated, dto.IssueResponse{
		SubjectID: code.SubjectID,
		Purpose:   code.Purpose.String(),
		ExpiresAt: code.ExpiresAt,
	})
}

// Validate maneja POST /v1/otp/validate
func (c *Controller) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Op("OTPController.Validate"))

	var in dto.ValidateRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}

	purpose, err := otp.ParsePurpose(in.Purpose)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("purpose must be email_verification or password_reset"))
		return
	}
	if in.SubjectID == "" || in.Code == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("subject_id and code required"))
		return
	}

	res, err := c.flows.Confirm(ctx, in.SubjectID, purpose, in.Code)
	if err != nil {
		log.Error("validate failed", logger.SubjectID(in.SubjectID), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	// EXPIRED/MISMATCH son outcomes, no errores: siempre 200.
	log.Info("code validated",
		logger.SubjectID(in.SubjectID),
		logger.Purpose(in.Purpose),
		logger.Bool("accepted", res.Accepted),
	)
	helpers.WriteJSON(w, http.StatusOK, dto.ValidateResponse{
		Accepted: res.Accepted,
		Reason:   string(res.Reason),
	})
}
