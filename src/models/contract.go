package models

import (
	"strings"
)

// MContract identifies an instrument on the gateway.
type MContract struct {
	ContractID      int32        `json:"contract_id"`
	Symbol          string       `json:"symbol"`
	SecurityType    SecurityType `json:"security_type"`
	LastTradeDate   string       `json:"last_trade_date"` // YYYYMMDD or YYYYMM
	Strike          float64      `json:"strike"`
	Right           string       `json:"right"` // C, P or empty
	Multiplier      string       `json:"multiplier"`
	Exchange        string       `json:"exchange"`
	PrimaryExchange string       `json:"primary_exchange"`
	Currency        string       `json:"currency"`
	LocalSymbol     string       `json:"local_symbol"`
	TradingClass    string       `json:"trading_class"`
	IncludeExpired  bool         `json:"include_expired"`
	ComboLegs       []MComboLeg  `json:"combo_legs,omitempty"`
}

// MComboLeg is one leg of a BAG contract.
type MComboLeg struct {
	ContractID int32  `json:"contract_id"`
	Ratio      int32  `json:"ratio"`
	Action     Action `json:"action"`
	Exchange   string `json:"exchange"`
}

// -----------------------------------------------------------------------------

// Stock builds a SMART routed USD stock contract.
func Stock(symbol string) MContract {
	return MContract{
		Symbol:       symbol,
		SecurityType: SecurityTypeStock,
		Exchange:     "SMART",
		Currency:     "USD",
	}
}

// IsBag reports a combo contract whose legs go on the wire.
func (c MContract) IsBag() bool {
	return c.SecurityType == SecurityTypeBag
}

func (c MContract) String() string {
	if c.LocalSymbol != "" {
		return c.LocalSymbol
	}
	return strings.TrimSpace(c.Symbol + " " + string(c.SecurityType))
}

// -----------------------------------------------------------------------------

// MTagValue is a free form option passed with some requests.
type MTagValue struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// TagValues renders options as "tag=value;" pairs.
type TagValues []MTagValue

func (t TagValues) ToField() string {
	var sb strings.Builder
	for _, tv := range t {
		sb.WriteString(tv.Tag)
		sb.WriteByte('=')
		sb.WriteString(tv.Value)
		sb.WriteByte(';')
	}
	return sb.String()
}
