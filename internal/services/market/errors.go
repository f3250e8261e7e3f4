package market

import "fmt"

// UnavailableError reports that neither market source produced data for a
// stock. It is recoverable: the report is still generated with the market
// section omitted. Partial failures never surface as this error because the
// snapshot carries whichever subset arrived.
type UnavailableError struct {
	StockID string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("market data unavailable for %s: %v", e.StockID, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
