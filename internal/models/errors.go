package models

import "fmt"

// LoadError reports an input volume that could not be read or decoded
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ShapeError reports a volume whose slice resolution the model cannot accept
// after the resize policy has been applied.
type ShapeError struct {
	Path   string
	Got    Size
	Want   Size
	Policy string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: slice size %s not supported by model (requires %s, resize policy %q)",
		e.Path, e.Got, e.Want, e.Policy)
}

// ModelError reports a failed prediction or a malformed model output
type ModelError struct {
	Path string
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("predict %s: %v", e.Path, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }
