package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "whale-copytrader/internal/errors"
	"whale-copytrader/internal/models"
)

// timestampLayouts are tried in order; the feed reports UTC without a zone.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

type listResponse struct {
	Transactions []wireTransaction `json:"transactions"`
}

type wireTransaction struct {
	ID                 json.RawMessage `json:"id"`
	Timestamp          string          `json:"timestamp"`
	TradeAmountRounded json.RawMessage `json:"trade_amount_rounded"`
	TokenMarketCap     json.RawMessage `json:"token_market_cap"`
	Whale              *struct {
		Name string `json:"name"`
	} `json:"swap_whalewatch_list"`
	Token *struct {
		Symbol       string `json:"symbol"`
		TokenAddress string `json:"token_address"`
	} `json:"swap_token"`
}

// ParseList decodes a list response body and returns its first record.
// An empty body, an undecodable body or an empty list yields (nil, nil).
// A first record missing a required field yields a RecordError.
func ParseList(body []byte) (*models.TransactionRecord, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil
	}
	if len(resp.Transactions) == 0 {
		return nil, nil
	}
	return resp.Transactions[0].record()
}

func (w wireTransaction) record() (*models.TransactionRecord, error) {
	id, err := parseID(w.ID)
	if err != nil {
		return nil, apperrors.NewRecordError("id", err)
	}
	if w.Timestamp == "" {
		return nil, apperrors.NewRecordError("timestamp", nil)
	}
	ts, err := ParseTimestamp(w.Timestamp)
	if err != nil {
		return nil, apperrors.NewRecordError("timestamp", err)
	}
	if w.Whale == nil || strings.TrimSpace(w.Whale.Name) == "" {
		return nil, apperrors.NewRecordError("swap_whalewatch_list.name", nil)
	}
	if w.Token == nil || w.Token.Symbol == "" {
		return nil, apperrors.NewRecordError("swap_token.symbol", nil)
	}
	if w.Token.TokenAddress == "" {
		return nil, apperrors.NewRecordError("swap_token.token_address", nil)
	}

	amount, err := parseAmount(w.TradeAmountRounded)
	if err != nil {
		return nil, apperrors.NewRecordError("trade_amount_rounded", err)
	}
	marketCap, err := parseAmount(w.TokenMarketCap)
	if err != nil {
		return nil, apperrors.NewRecordError("token_market_cap", err)
	}

	return &models.TransactionRecord{
		ID:             id,
		Timestamp:      ts,
		WhaleName:      w.Whale.Name,
		TokenSymbol:    w.Token.Symbol,
		TokenAddress:   w.Token.TokenAddress,
		TradeAmountUSD: amount,
		MarketCapUSD:   marketCap,
	}, nil
}

// ParseTimestamp parses a feed timestamp as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseID accepts a JSON string or number.
func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("missing")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		if s == "" {
			return "", fmt.Errorf("empty")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// parseAmount accepts a number, a numeric string, null, absence or the
// feed's "Unknown" marker. Only the last three are reported as not valid.
func parseAmount(raw json.RawMessage) (decimal.NullDecimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.NullDecimal{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.NullDecimal{}, err
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "unknown") {
			return decimal.NullDecimal{}, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		return decimal.NewNullDecimal(d), nil
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
