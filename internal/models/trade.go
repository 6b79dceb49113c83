package models

import (
	"github.com/shopspring/decimal"

	apperrors "whale-copytrader/internal/errors"
)

// LimitOrder holds the optional take-profit order placed after a purchase.
type LimitOrder struct {
	Enabled         bool
	SellPercent     int     // (0, 100]
	TriggerMultiple float64 // >= 0, multiple of the purchase price
}

// TradeRequest is the input of a purchase conversation.
type TradeRequest struct {
	ContractAddress string
	SOLAmount       decimal.Decimal
	Limit           LimitOrder
}

// Validate checks the request before any message is sent.
func (r TradeRequest) Validate() error {
	if r.ContractAddress == "" {
		return apperrors.NewValidationError("contract_address", r.ContractAddress, "must not be empty")
	}
	if !r.SOLAmount.IsPositive() {
		return apperrors.NewValidationError("sol_amount", r.SOLAmount.String(), "must be greater than 0")
	}
	if r.Limit.Enabled {
		if r.Limit.SellPercent <= 0 || r.Limit.SellPercent > 100 {
			return apperrors.NewValidationError("limit_sell_percent", r.Limit.SellPercent, "must be between 1 and 100")
		}
		if r.Limit.TriggerMultiple < 0 {
			return apperrors.NewValidationError("limit_trigger_multiple", r.Limit.TriggerMultiple, "must not be negative")
		}
	}
	return nil
}
