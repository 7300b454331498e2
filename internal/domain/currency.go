package domain

import (
	"fmt"
	"strings"
)

// Currency is a display currency. Amounts are never converted, only labelled.
type Currency struct {
	Code   string `json:"code" yaml:"code"`
	Symbol string `json:"symbol" yaml:"symbol"`
}

// SupportedCurrencies lists the currencies selectable in every surface
var SupportedCurrencies = []Currency{
	{Code: "USD", Symbol: "$"},
	{Code: "EUR", Symbol: "€"},
	{Code: "GBP", Symbol: "£"},
	{Code: "JPY", Symbol: "¥"},
	{Code: "INR", Symbol: "₹"},
	{Code: "CAD", Symbol: "$"},
	{Code: "AUD", Symbol: "$"},
}

// DefaultCurrency is USD
var DefaultCurrency = SupportedCurrencies[0]

// LookupCurrency finds a supported currency by ISO code (case-insensitive)
func LookupCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	for _, c := range SupportedCurrencies {
		if c.Code == code {
			return c, nil
		}
	}
	return Currency{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
}

// ParseCurrency is LookupCurrency falling back to the default currency
func ParseCurrency(code string) Currency {
	c, err := LookupCurrency(code)
	if err != nil {
		return DefaultCurrency
	}
	return c
}

// String returns "USD ($)"
func (c Currency) String() string {
	return fmt.Sprintf("%s (%s)", c.Code, c.Symbol)
}
