package metrics

import "fmt"

// LoadError reports a spreadsheet input that could not be read or parsed.
// The pipeline treats it as fatal: without metric data there is no page.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load metric data from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newLoadError(path string, err error) *LoadError {
	return &LoadError{Path: path, Err: err}
}
