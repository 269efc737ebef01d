package pipeline

import "fmt"

// LoadError means the input could not be read or parsed. It is the only
// fatal pipeline error: nothing has been computed yet, so the run aborts.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// MissingColumnError means a recognized column is absent from the input
// schema. The dependent stage is skipped for the whole batch.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not present in input", e.Column)
}

// SaveError means the output could not be persisted. In-memory results
// are intact; the error is reported to the caller.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
