package registry

import "fmt"

// ErrSpecLoad is the sentinel wrapped by every load-time failure. Spec
// loading is fatal at startup: callers should treat any error from Load or
// LoadFile as unrecoverable.
type ErrSpecLoad struct {
	Kind string // "parse" | "duplicate_dgn" | "undefined_enum" | "straddle"
	Msg  string
}

func (e *ErrSpecLoad) Error() string {
	return fmt.Sprintf("registry: spec load failed (%s): %s", e.Kind, e.Msg)
}

func newLoadError(kind, format string, args ...any) error {
	return &ErrSpecLoad{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
