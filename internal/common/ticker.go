// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified stock identifier.
// Format: EXCHANGE:CODE (e.g., "ASX:MIN", "NYSE:AAPL")
type Ticker struct {
	// Exchange is the exchange code (e.g., "ASX", "NYSE", "NASDAQ")
	Exchange string
	// Code is the stock/security code (e.g., "MIN", "AAPL")
	Code string
	// Raw is the original identifier string
	Raw string
}

// ExchangeToQuoteSuffix maps exchange codes to the quote host's symbol
// suffixes. US listings carry no suffix.
var ExchangeToQuoteSuffix = map[string]string{
	"ASX":    ".AX",
	"NYSE":   "",
	"NASDAQ": "",
	"LSE":    ".L",
	"TSX":    ".TO",
	"XETRA":  ".DE",
}

// QuoteSuffixToExchange maps quote-host symbol suffixes back to exchange
// codes, for identifiers given in CODE.SUFFIX form (e.g., "MIN.AX").
var QuoteSuffixToExchange = map[string]string{
	"AX": "ASX",
	"L":  "LSE",
	"TO": "TSX",
	"DE": "XETRA",
}

// DefaultExchange is the default exchange used when parsing identifiers
// without an exchange prefix. Can be overridden via [market] default_exchange
// config in TOML.
var DefaultExchange = "ASX"

// SetDefaultExchange sets the default exchange for parsing identifiers.
// Called during app initialization from config.
func SetDefaultExchange(exchange string) {
	if exchange != "" {
		DefaultExchange = strings.ToUpper(exchange)
	}
}

// ParseTicker parses an exchange-qualified stock identifier.
// Supports formats:
//   - "ASX:MIN" -> Exchange="ASX", Code="MIN" (colon separator)
//   - "ASX.MIN" -> Exchange="ASX", Code="MIN" (dot separator)
//   - "MIN.AX"  -> Exchange="ASX", Code="MIN" (quote-host suffix form)
//   - "MIN"     -> Exchange=DefaultExchange, Code="MIN"
//   - "min"     -> Exchange=DefaultExchange, Code="MIN" (normalized to uppercase)
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	// Check for exchange prefix with colon separator (EXCHANGE:CODE)
	if idx := strings.Index(ticker, ":"); idx > 0 {
		exchange := strings.ToUpper(ticker[:idx])
		code := strings.ToUpper(ticker[idx+1:])
		return Ticker{
			Exchange: exchange,
			Code:     code,
			Raw:      ticker,
		}
	}

	// Check for exchange prefix with dot separator (EXCHANGE.CODE)
	// Only match if the prefix is a known exchange to avoid conflicts with codes containing dots
	if idx := strings.Index(ticker, "."); idx > 0 {
		possibleExchange := strings.ToUpper(ticker[:idx])
		if _, ok := ExchangeToQuoteSuffix[possibleExchange]; ok {
			code := strings.ToUpper(ticker[idx+1:])
			return Ticker{
				Exchange: possibleExchange,
				Code:     code,
				Raw:      ticker,
			}
		}
	}

	// Check for quote-host suffix form (CODE.SUFFIX, e.g. "MIN.AX")
	// Use LastIndex because codes can contain dots (e.g., "BRK.B")
	if idx := strings.LastIndex(ticker, "."); idx > 0 && idx < len(ticker)-1 {
		possibleSuffix := strings.ToUpper(ticker[idx+1:])
		if exchange, ok := QuoteSuffixToExchange[possibleSuffix]; ok {
			return Ticker{
				Exchange: exchange,
				Code:     strings.ToUpper(ticker[:idx]),
				Raw:      ticker,
			}
		}
	}

	// No exchange qualifier - use default exchange
	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified identifier string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// QuoteSymbol returns the symbol format used by the public quote host.
// Example: "ASX:MIN" -> "MIN.AX", "NASDAQ:MSFT" -> "MSFT"
func (t Ticker) QuoteSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToQuoteSuffix[t.Exchange]
	if !ok {
		// Unknown exchanges fall back to the default exchange's suffix
		suffix = ExchangeToQuoteSuffix[DefaultExchange]
	}
	return t.Code + suffix
}
