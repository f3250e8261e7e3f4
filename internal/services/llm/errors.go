package llm

import (
	"fmt"

	"github.com/ternarybob/prospectus/internal/common"
)

// UnavailableError reports that the provider could not produce commentary.
// It is recoverable: the page renders with placeholder text instead.
type UnavailableError struct {
	Provider common.LLMProvider
	Err      error
}

func (e *UnavailableError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("narrative generation unavailable: %v", e.Err)
	}
	return fmt.Sprintf("%s narrative generation unavailable: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
