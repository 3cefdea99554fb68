package models

// Requests for the audit HTTP endpoints. Defined in domain for consistency
// and reuse.

type SimulateRequest struct {
	Signals            []Signal `json:"signals" validate:"required,min=1,max=500,dive"`
	CapitalPerPosition float64  `json:"capital_per_position" default:"100" validate:"gte=0"`
	HorizonHours       int      `json:"horizon_hours" default:"24" validate:"gte=1,lte=720"`
}

type ValidateRequest struct {
	Signals []Signal `json:"signals" validate:"required,min=1,max=500,dive"`
}

type AccuracyRequest struct {
	Account string   `json:"account" validate:"required"`
	Signals []Signal `json:"signals" validate:"required,min=1,max=500,dive"`
}

type ValidateResponse struct {
	Outcomes []ValidationOutcome `json:"outcomes"`
	Records  []ValidationRecord  `json:"records"`
}
