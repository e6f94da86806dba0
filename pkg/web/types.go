package web

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/zapdesk/automata/pkg/models"
)

// IngestResponse reports the outcome of every action an ingested event or
// message caused. Failed dispatches appear here too; they are not errors at
// the HTTP level.
type IngestResponse struct {
	Outcomes []models.ActionOutcome `json:"outcomes"`
}

// SweepResponse lists the sessions ended by a timeout sweep.
type SweepResponse struct {
	Expired []models.SessionKey `json:"expired"`
}

func isValidationError(err error) bool {
	var verr validator.ValidationErrors

	return errors.As(err, &verr)
}
