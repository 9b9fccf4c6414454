package plugin

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iruldev/switchboard/config"
	"github.com/iruldev/switchboard/factory"
	"github.com/iruldev/switchboard/middleware"
)

// LoadedPlugin is the bookkeeping record the Manager keeps for one loaded
// shared library.
type LoadedPlugin struct {
	Path     string
	Manifest Manifest
	Instance Instance
	destroy  DestroyFunc
	refCount atomic.Int64
	loadedAt time.Time
	modTime  time.Time
}

// RefCount returns the plugin's current reference count.
func (p *LoadedPlugin) RefCount() int64 { return p.refCount.Load() }

// Manager discovers, validates, loads, and unloads plugin shared objects,
// registering each one's supported middleware types with an owned
// factory.Factory. Grounded on GoCodeAlone-workflow/plugin/manager.go's
// PluginManager (Register/Enable/Disable, resolveEnableOrder,
// resolveDisableOrder) and loader.go's topoSortPlugins, generalized here
// from that repo's in-process plugin interface to a dynamically loaded
// shared-library ABI with reference counting and hot reload.
type Manager struct {
	mu      sync.RWMutex
	plugins map[string]*LoadedPlugin
	factory *factory.Factory
	onEvent EventCallback

	healthMu       sync.Mutex
	healthStop     chan struct{}
	healthWG       sync.WaitGroup
	healthInterval time.Duration
}

// NewManager builds a Manager that registers loaded plugins' middleware
// types into f. onEvent may be nil.
func NewManager(f *factory.Factory, onEvent EventCallback) *Manager {
	return &Manager{
		plugins: make(map[string]*LoadedPlugin),
		factory: f,
		onEvent: onEvent,
	}
}

func (m *Manager) emit(event EventType, pluginName, message string) {
	if m.onEvent != nil {
		m.onEvent(event, pluginName, message)
	}
}

// LoadPlugin runs the full load protocol against path:
//  1. open the shared object and resolve its three exported symbols
//  2. call the info function to obtain its Manifest
//  3. (symbol resolution happens together with step 1 in resolveSymbols)
//  4. validate the manifest's ABIVersion against ABIVersion
//  5. validate the framework's version against MinFrameworkVersion
//  6. validate every non-optional Dependency is already loaded at MinVersion
//  7. construct an Instance and call Initialize
//  8. register the instance's supported types with the factory and record it
func (m *Manager) LoadPlugin(path string) LoadOutcome {
	infoFn, createFn, destroyFn, err := resolveSymbols(path)
	if err != nil {
		m.emit(EventError, path, err.Error())
		return LoadOutcome{Path: path, Result: classifyResult(err), Err: err}
	}

	manifest := infoFn()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plugins[manifest.Name]; exists {
		err := fmt.Errorf("%w: %s", errAlreadyLoaded, manifest.Name)
		m.emit(EventError, manifest.Name, err.Error())
		return LoadOutcome{Path: path, Result: ResultAlreadyLoaded, Err: err}
	}

	if manifest.ABIVersion != ABIVersion {
		err := fmt.Errorf("%w: plugin ABI %d, framework supports %d", errVersionMismatch, manifest.ABIVersion, ABIVersion)
		m.emit(EventError, manifest.Name, err.Error())
		return LoadOutcome{Path: path, Result: ResultVersionMismatch, Err: err}
	}

	frameworkVer, _ := ParseVersion(FrameworkVersion)
	if !frameworkVer.AtLeast(manifest.MinFrameworkVersion) {
		err := fmt.Errorf("%w: plugin requires framework >= %s, have %s", errVersionMismatch, manifest.MinFrameworkVersion, FrameworkVersion)
		m.emit(EventError, manifest.Name, err.Error())
		return LoadOutcome{Path: path, Result: ResultVersionMismatch, Err: err}
	}

	for _, dep := range manifest.Dependencies {
		loaded, ok := m.plugins[dep.Name]
		if !ok {
			if dep.Optional {
				continue
			}
			err := fmt.Errorf("%w: %s requires %s", errDependencyMissing, manifest.Name, dep.Name)
			m.emit(EventError, manifest.Name, err.Error())
			return LoadOutcome{Path: path, Result: ResultDependencyMissing, Err: err}
		}
		if !loaded.Manifest.Version.AtLeast(dep.MinVersion) {
			err := fmt.Errorf("%w: %s requires %s >= %s, have %s", errDependencyMissing, manifest.Name, dep.Name, dep.MinVersion, loaded.Manifest.Version)
			m.emit(EventError, manifest.Name, err.Error())
			return LoadOutcome{Path: path, Result: ResultDependencyMissing, Err: err}
		}
	}

	instance := createFn()
	if instance == nil || !instance.Initialize(FrameworkVersion) {
		err := fmt.Errorf("%w: %s", errInitFailed, manifest.Name)
		m.emit(EventError, manifest.Name, err.Error())
		return LoadOutcome{Path: path, Result: ResultInitializationFailed, Err: err}
	}

	fi, statErr := os.Stat(path)
	var modTime time.Time
	if statErr == nil {
		modTime = fi.ModTime()
	}

	record := &LoadedPlugin{
		Path:     path,
		Manifest: manifest,
		Instance: instance,
		destroy:  destroyFn,
		loadedAt: time.Now(),
		modTime:  modTime,
	}

	m.registerTypes(instance)

	m.plugins[manifest.Name] = record
	m.emit(EventLoaded, manifest.Name, path)
	return LoadOutcome{Path: path, Result: ResultSuccess, Record: record}
}

func (m *Manager) registerTypes(instance Instance) {
	for _, typ := range instance.SupportedTypes() {
		inst := instance
		m.factory.Register(typ, func(cfg config.MiddlewareInstanceConfig) (middleware.Middleware, error) {
			return inst.CreateMiddleware(cfg)
		})
	}
}

// IsLoaded reports whether a plugin named name is currently loaded.
func (m *Manager) IsLoaded(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.plugins[name]
	return ok
}

// Get returns the loaded record for name, if any.
func (m *Manager) Get(name string) (*LoadedPlugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plugins[name]
	return p, ok
}

// LoadedPlugins returns every currently loaded plugin's manifest.
func (m *Manager) LoadedPlugins() []Manifest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Manifest, 0, len(m.plugins))
	for _, p := range m.plugins {
		out = append(out, p.Manifest)
	}
	return out
}

// IncrementRef bumps name's reference count, e.g. when a pipeline starts
// using middleware the plugin supplied.
func (m *Manager) IncrementRef(name string) {
	m.mu.RLock()
	p, ok := m.plugins[name]
	m.mu.RUnlock()
	if ok {
		p.refCount.Add(1)
	}
}

// DecrementRef releases one reference on name.
func (m *Manager) DecrementRef(name string) {
	m.mu.RLock()
	p, ok := m.plugins[name]
	m.mu.RUnlock()
	if ok {
		p.refCount.Add(-1)
	}
}

// UnloadPlugin unloads name, refusing when its reference count is
// positive. Use ForceUnloadPlugin to bypass that check.
func (m *Manager) UnloadPlugin(name string) error {
	return m.unload(name, false)
}

// ForceUnloadPlugin unloads name regardless of reference count.
func (m *Manager) ForceUnloadPlugin(name string) error {
	return m.unload(name, true)
}

func (m *Manager) unload(name string, force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plugins[name]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownPlugin, name)
	}
	if !force && p.refCount.Load() > 0 {
		return fmt.Errorf("%w: %s has %d references", errRefCountPositive, name, p.refCount.Load())
	}

	for _, typ := range p.Instance.SupportedTypes() {
		m.factory.Unregister(typ)
	}
	p.Instance.Shutdown()
	if p.destroy != nil {
		p.destroy(p.Instance)
	}
	delete(m.plugins, name)
	m.emit(EventUnloaded, name, p.Path)
	return nil
}

// UnloadAllPlugins unloads every loaded plugin in dependents-first order,
// so a plugin is always unloaded before anything it depends on. force is
// passed through to each individual unload.
func (m *Manager) UnloadAllPlugins(force bool) error {
	order, err := m.unloadOrder()
	if err != nil {
		return err
	}
	for _, name := range order {
		if err := m.unload(name, force); err != nil {
			return err
		}
	}
	return nil
}

// unloadOrder returns loaded plugin names ordered so that every plugin
// appears before anything it depends on (dependents before dependencies),
// via a DFS topological sort with three-state cycle detection, following
// the same approach as GoCodeAlone-workflow's topoSortPlugins.
func (m *Manager) unloadOrder() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[string]int, len(m.plugins))
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", errCircularDependency, name)
		}
		state[name] = visiting

		p, ok := m.plugins[name]
		if ok {
			for _, dep := range p.Manifest.Dependencies {
				if _, loaded := m.plugins[dep.Name]; loaded {
					if err := visit(dep.Name); err != nil {
						return err
					}
				}
			}
		}
		state[name] = visited
		order = append(order, name)
		return nil
	}

	names := make([]string, 0, len(m.plugins))
	for name := range m.plugins {
		names = append(names, name)
	}
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	// visit appends dependencies before dependents; reverse so dependents
	// unload first.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// StartHealthChecks starts a background goroutine that calls IsHealthy on
// every loaded plugin every interval, unloading (subject to reference
// count) any that report false.
func (m *Manager) StartHealthChecks(interval time.Duration) {
	m.healthMu.Lock()
	defer m.healthMu.Unlock()
	if m.healthStop != nil {
		return
	}
	m.healthInterval = interval
	m.healthStop = make(chan struct{})
	m.healthWG.Add(1)
	go m.healthLoop(m.healthStop)
}

// StopHealthChecks stops the background health-check loop started by
// StartHealthChecks. Safe to call when no loop is running.
func (m *Manager) StopHealthChecks() {
	m.healthMu.Lock()
	stop := m.healthStop
	m.healthStop = nil
	m.healthMu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	m.healthWG.Wait()
}

func (m *Manager) healthLoop(stop chan struct{}) {
	defer m.healthWG.Done()
	ticker := time.NewTicker(m.healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.runHealthChecks()
		}
	}
}

func (m *Manager) runHealthChecks() {
	m.mu.RLock()
	names := make([]string, 0, len(m.plugins))
	for name := range m.plugins {
		names = append(names, name)
	}
	m.mu.RUnlock()

	for _, name := range names {
		m.mu.RLock()
		p, ok := m.plugins[name]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if !p.Instance.IsHealthy() {
			m.emit(EventError, name, "health check failed, unloading")
			if err := m.UnloadPlugin(name); err != nil {
				m.emit(EventError, name, fmt.Sprintf("unload after failed health check: %v", err))
			}
		}
	}
}

// CheckAndReloadPlugins re-stats every loaded plugin's shared object and
// reloads (unload then LoadPlugin) any whose mtime has advanced, as long
// as its reference count is zero.
func (m *Manager) CheckAndReloadPlugins() {
	m.mu.RLock()
	type candidate struct {
		name, path string
	}
	var candidates []candidate
	for name, p := range m.plugins {
		fi, err := os.Stat(p.Path)
		if err != nil {
			continue
		}
		if fi.ModTime().After(p.modTime) && p.refCount.Load() == 0 {
			candidates = append(candidates, candidate{name, p.Path})
		}
	}
	m.mu.RUnlock()

	for _, c := range candidates {
		if err := m.UnloadPlugin(c.name); err != nil {
			m.emit(EventError, c.name, fmt.Sprintf("hot reload unload: %v", err))
			continue
		}
		outcome := m.LoadPlugin(c.path)
		if outcome.Result != ResultSuccess {
			m.emit(EventError, c.name, fmt.Sprintf("hot reload reload: %v", outcome.Err))
			continue
		}
		m.emit(EventHotReload, c.name, c.path)
	}
}
