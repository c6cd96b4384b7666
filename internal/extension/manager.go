package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DirName is the managed extensions directory name under the app data dir.
const DirName = "wowup-extensions"

// InstallLedger records installs so unchanged reinstalls can skip the copy.
type InstallLedger interface {
	InstallDigest(name string) (digest uint64, ok bool, err error)
	RecordInstall(name, version, source string, digest uint64, at time.Time) error
}

// Options configures a Manager.
type Options struct {
	Dir        string       // Managed extensions directory (required)
	AppVersion string       // Passed to every extension on activation
	Loader     ModuleLoader // Defaults to DefaultLoader()
	Ledger     InstallLedger
	Logger     *slog.Logger
}

// Manager installs, discovers and instantiates extensions under a managed
// directory and owns the registry of loaded extensions.
type Manager struct {
	dir        string
	appVersion string
	loader     ModuleLoader
	ledger     InstallLedger
	registry   *Registry
	logger     *slog.Logger
	now        func() time.Time
}

// NewManager creates a manager, creating the managed directory if absent.
func NewManager(opts Options) (*Manager, error) {
	if opts.Dir == "" {
		return nil, errors.New("extensions directory is required")
	}
	if opts.Loader == nil {
		opts.Loader = DefaultLoader()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create extensions directory: %w", err)
	}
	opts.Logger.Debug("extensions directory ready", "dir", opts.Dir)

	return &Manager{
		dir:        opts.Dir,
		appVersion: opts.AppVersion,
		loader:     opts.Loader,
		ledger:     opts.Ledger,
		registry:   NewRegistry(opts.Logger),
		logger:     opts.Logger,
		now:        time.Now,
	}, nil
}

// Dir returns the managed extensions directory.
func (m *Manager) Dir() string { return m.dir }

// Registry returns the registry of loaded extensions.
func (m *Manager) Registry() *Registry { return m.registry }

// Listen subscribes to load-completed notifications.
func (m *Manager) Listen(onLoaded func(Metadata)) func() {
	return m.registry.Listen(onLoaded)
}

// Dispose disposes every loaded extension.
func (m *Manager) Dispose() error {
	return m.registry.Dispose()
}

// Install copies the extension at sourcePath into the managed directory
// under its declared name and returns the installed path.
func (m *Manager) Install(ctx context.Context, sourcePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	meta, err := LoadMetadata(sourcePath)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(m.dir, meta.Name)
	srcAbs, _ := filepath.Abs(sourcePath)
	destAbs, _ := filepath.Abs(dest)
	if srcAbs == destAbs {
		return dest, nil
	}

	digest, err := treeDigest(sourcePath)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", sourcePath, err)
	}

	if m.unchanged(meta.Name, dest, digest) {
		m.logger.Debug("extension unchanged, skipping copy", "name", meta.Name, "dest", dest)
		return dest, nil
	}

	if err := m.replaceTree(sourcePath, dest); err != nil {
		return "", fmt.Errorf("install %s: %w", meta.Name, err)
	}

	if m.ledger != nil {
		if err := m.ledger.RecordInstall(meta.Name, meta.Version, srcAbs, digest, m.now()); err != nil {
			m.logger.Warn("failed to record install", "name", meta.Name, "err", err)
		}
	}

	m.logger.Info("extension installed", "name", meta.Name, "version", meta.Version, "dest", dest)
	return dest, nil
}

func (m *Manager) unchanged(name, dest string, digest uint64) bool {
	if m.ledger == nil {
		return false
	}
	prev, ok, err := m.ledger.InstallDigest(name)
	if err != nil || !ok || prev != digest {
		return false
	}
	info, err := os.Stat(dest)
	return err == nil && info.IsDir()
}

// replaceTree copies src into a hidden staging directory inside the managed
// directory, then swaps it into place at dest.
func (m *Manager) replaceTree(src, dest string) error {
	staging, err := os.MkdirTemp(m.dir, ".install-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(staging) }()

	if err := copyTree(src, staging); err != nil {
		return err
	}
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	return os.Rename(staging, dest)
}

// ListInstalled returns the full paths of the extension directories in the
// managed directory, sorted by name. Files and hidden entries are skipped.
func (m *Manager) ListInstalled() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read extensions directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(m.dir, e.Name()))
	}
	return paths, nil
}

// Instantiate loads, validates and activates the extension at path, then
// registers it and announces it to listeners. On any failure the error is
// logged and returned and nothing is registered.
func (m *Manager) Instantiate(ctx context.Context, path string) (*Container, error) {
	c, res := m.instantiate(ctx, path)
	if res.Err != nil {
		m.logger.Error("failed to load extension", "path", path, "name", res.Name, "err", res.Err)
		return nil, res.Err
	}
	return c, nil
}

func (m *Manager) instantiate(ctx context.Context, path string) (*Container, LoadResult) {
	res := LoadResult{Path: path, State: StateDiscovered}
	reject := func(err error) (*Container, LoadResult) {
		res.State = StateRejected
		res.Err = err
		return nil, res
	}

	if err := ctx.Err(); err != nil {
		return reject(err)
	}

	meta, err := LoadMetadata(path)
	if err != nil {
		return reject(err)
	}
	meta.Path = path
	res.Name = meta.Name
	res.State = StateMetadataValidated

	v, err := m.loader.Load(meta)
	if err != nil {
		return reject(err)
	}
	ext, err := validateRuntime(v)
	if err != nil {
		return reject(err)
	}
	res.State = StateRuntimeValidated

	if err := resolveIcon(meta); err != nil {
		return reject(err)
	}

	actx := &Context{
		AppVersion: m.appVersion,
		Dir:        path,
		Logger:     m.logger.With("extension", meta.Name),
	}
	if err := safeActivate(ext, actx); err != nil {
		return reject(err)
	}
	res.State = StateActivated

	c := newContainer(ext, *meta)
	if err := m.registry.register(c); err != nil {
		return reject(err)
	}
	res.State = StateRegistered

	m.logger.Info("extension loaded", "name", meta.Name, "version", meta.Version, "path", path)
	return c, res
}

// LoadAll installs each seed in order, then instantiates every installed
// extension in sequence. Individual failures are logged and reported in the
// results; they never stop the remaining loads.
func (m *Manager) LoadAll(ctx context.Context, seeds []string) []LoadResult {
	for _, seed := range seeds {
		if _, err := m.Install(ctx, seed); err != nil {
			m.logger.Error("failed to install extension", "source", seed, "err", err)
		}
	}

	paths, err := m.ListInstalled()
	if err != nil {
		m.logger.Error("failed to list extensions", "err", err)
		return nil
	}

	results := make([]LoadResult, 0, len(paths))
	for _, path := range paths {
		_, res := m.instantiate(ctx, path)
		if res.Err != nil {
			m.logger.Error("failed to load extension", "path", path, "name", res.Name, "err", res.Err)
		}
		results = append(results, res)
	}

	m.logger.Info("extensions loaded", "found", len(paths), "registered", countRegistered(results))
	return results
}

func countRegistered(results []LoadResult) int {
	n := 0
	for _, r := range results {
		if r.State == StateRegistered {
			n++
		}
	}
	return n
}
