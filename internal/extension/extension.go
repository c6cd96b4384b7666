package extension

import "log/slog"

// Activator is the activation capability every extension must expose.
type Activator interface {
	Activate(ctx *Context) error
}

// Disposer is the teardown capability every extension must expose.
type Disposer interface {
	Dispose() error
}

// Extension is a runtime instance with both required capabilities.
type Extension interface {
	Activator
	Disposer
}

// Context is handed to an extension's Activate call.
type Context struct {
	AppVersion string       // Host application version
	Dir        string       // Extension installation directory
	Logger     *slog.Logger // Logger scoped to the extension
}

// State tracks an extension through a load attempt.
type State int

const (
	StateDiscovered State = iota
	StateMetadataValidated
	StateRuntimeValidated
	StateActivated
	StateRegistered
	StateRejected
	StateDisposed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateMetadataValidated:
		return "metadata-validated"
	case StateRuntimeValidated:
		return "runtime-validated"
	case StateActivated:
		return "activated"
	case StateRegistered:
		return "registered"
	case StateRejected:
		return "rejected"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// LoadResult reports the outcome of one extension load attempt.
type LoadResult struct {
	Path  string
	Name  string // Empty when the manifest could not be read
	State State
	Err   error
}
