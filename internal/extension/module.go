package extension

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"sort"
	"sync"
)

// Factory creates a fresh runtime instance for an extension module.
// The returned value is checked for the Activator and Disposer capabilities.
type Factory func() any

// NewExtensionSymbol is the symbol a shared-object module must export.
// Its type must be func() any.
const NewExtensionSymbol = "NewExtension"

// ModuleLoader resolves an extension's runtime module.
type ModuleLoader interface {
	Load(meta *Metadata) (any, error)
}

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register adds a compiled-in module factory under name.
// It is intended to be called from init functions; re-registering a name
// replaces the previous factory.
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Registered lists the names of compiled-in module factories.
func Registered() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupFactory(name string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// BuiltinLoader resolves modules against factories added with Register.
type BuiltinLoader struct{}

// Load implements ModuleLoader.
func (BuiltinLoader) Load(meta *Metadata) (any, error) {
	f, ok := lookupFactory(meta.Module())
	if !ok {
		return nil, fmt.Errorf("%w: builtin %q", ErrModuleNotFound, meta.Module())
	}
	return f(), nil
}

// SharedObjectLoader opens <dir>/<main>.so with the Go plugin package and
// calls its exported NewExtension function.
type SharedObjectLoader struct{}

// Load implements ModuleLoader.
func (SharedObjectLoader) Load(meta *Metadata) (any, error) {
	path := filepath.Join(meta.Path, meta.Module()+".so")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, path)
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open module %s: %w", path, err)
	}
	sym, err := p.Lookup(NewExtensionSymbol)
	if err != nil {
		return nil, &ValidationError{Field: NewExtensionSymbol, Reason: "symbol not exported"}
	}

	switch fn := sym.(type) {
	case func() any:
		return fn(), nil
	case *func() any:
		return (*fn)(), nil
	default:
		return nil, &ValidationError{Field: NewExtensionSymbol, Reason: fmt.Sprintf("unexpected type %T", sym)}
	}
}

// ChainLoader tries each loader in order and returns the first module found.
type ChainLoader []ModuleLoader

// Load implements ModuleLoader.
func (c ChainLoader) Load(meta *Metadata) (any, error) {
	for _, l := range c {
		v, err := l.Load(meta)
		if errors.Is(err, ErrModuleNotFound) {
			continue
		}
		return v, err
	}
	return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, meta.Module())
}

// DefaultLoader checks compiled-in factories first, then shared objects.
func DefaultLoader() ModuleLoader {
	return ChainLoader{BuiltinLoader{}, SharedObjectLoader{}}
}

// validateRuntime checks the loaded value for both required capabilities.
func validateRuntime(v any) (Extension, error) {
	if v == nil {
		return nil, &ValidationError{Field: "runtime", Reason: "module returned nil"}
	}
	if _, ok := v.(Activator); !ok {
		return nil, &ValidationError{Field: "activate", Reason: "capability is required"}
	}
	if _, ok := v.(Disposer); !ok {
		return nil, &ValidationError{Field: "dispose", Reason: "capability is required"}
	}
	return v.(Extension), nil
}
