package models

import "github.com/shopspring/decimal"

// MPositionMulti is a position held in one account and model.
type MPositionMulti struct {
	Account     string          `json:"account"`
	ModelCode   string          `json:"model_code"`
	Contract    MContract       `json:"contract"`
	Position    decimal.Decimal `json:"position"`
	AverageCost float64         `json:"average_cost"`
}

// MPositionUpdateMulti is either a position or the end of the initial
// snapshot. Updates keep flowing after End until the request is cancelled.
type MPositionUpdateMulti struct {
	Position *MPositionMulti `json:"position,omitempty"`
	End      bool            `json:"end"`
}
