package report

import "fmt"

// RenderError reports that the report could not be composed or written. It
// is fatal: when it surfaces, no usable output exists at the path.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render report to %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
