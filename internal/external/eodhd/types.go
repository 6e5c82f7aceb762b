package eodhd

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/wonny/factorpanel/internal/contracts"
)

// EODBar is one end-of-day bar
type EODBar struct {
	Date          string  `json:"date"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// MarketCapPoint is one historical market capitalization value
type MarketCapPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Amount is a statement value that the API sends as a number, a numeric string or null
type Amount struct {
	contracts.NullFloat
}

// UnmarshalJSON accepts 123, "123.00", "" and null
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		a.NullFloat = contracts.Null()
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			a.NullFloat = contracts.Null()
			return nil
		}
		a.NullFloat = contracts.Float(v)
		return nil
	}
	return a.NullFloat.UnmarshalJSON(data)
}

// StatementEntry is one quarterly statement row. Only the fields the panel needs are decoded.
type StatementEntry struct {
	Date                             string `json:"date"`
	FilingDate                       string `json:"filing_date"`
	TotalStockholderEquity           Amount `json:"totalStockholderEquity"`
	TotalRevenue                     Amount `json:"totalRevenue"`
	TotalCashFromOperatingActivities Amount `json:"totalCashFromOperatingActivities"`
}

// Statement holds the quarterly entries of one statement keyed by period end date
type Statement struct {
	Quarterly map[string]StatementEntry `json:"quarterly"`
}

// Financials contains the three statements
type Financials struct {
	BalanceSheet    *Statement `json:"Balance_Sheet"`
	CashFlow        *Statement `json:"Cash_Flow"`
	IncomeStatement *Statement `json:"Income_Statement"`
}

// General holds company classification
type General struct {
	Code      string `json:"Code"`
	Name      string `json:"Name"`
	Sector    string `json:"Sector"`
	GicSector string `json:"GicSector"`
}

// FundamentalsResponse is the subset of the fundamentals endpoint used here
type FundamentalsResponse struct {
	General    *General    `json:"General"`
	Financials *Financials `json:"Financials"`
}
