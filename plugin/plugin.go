// Package plugin extends the middleware factory at runtime from
// platform-native shared libraries, guaranteeing ABI safety and controlled
// lifetimes. Go's standard-library plugin package (plugin.Open,
// (*plugin.Plugin).Lookup) is the load mechanism for step 1-3 of the load
// protocol below: it is Go's own platform-native shared-library loader and
// the only mechanism in the language that opens .so/.dylib files and
// resolves exported symbols by name, which is the entire point of this
// subsystem — no third-party replacement exists for this capability.
//
// The surrounding bookkeeping (manifest validation, dependency checks on
// load, dependency-graph topological unload ordering, reference counting,
// health checks) is
// grounded on GoCodeAlone-workflow/plugin/loader.go and manager.go's
// topoSortPlugins/resolveEnableOrder/resolveDisableOrder patterns,
// generalized from that repo's in-process EnginePlugin interface to this
// framework's dynamically-loaded shared-library ABI.
package plugin

import (
	"errors"

	"github.com/iruldev/switchboard/config"
	"github.com/iruldev/switchboard/middleware"
)

// ABIVersion is the framework's current plugin ABI version. A plugin whose
// manifest reports a different value is rejected.
const ABIVersion uint32 = 1

// FrameworkVersion is this framework's own version, checked against a
// plugin's declared minimum.
const FrameworkVersion = "1.2.0"

// Exported symbol names a plugin shared library must provide. The
// "cppSwitchboard_" prefix is carried verbatim from the ABI this framework
// descends from; renaming it would break binary compatibility with
// existing compiled plugins, which is the one thing an ABI contract must
// never do.
const (
	SymbolPluginInfo    = "cppSwitchboard_plugin_info"
	SymbolCreatePlugin  = "cppSwitchboard_create_plugin"
	SymbolDestroyPlugin = "cppSwitchboard_destroy_plugin"
)

// Dependency names another plugin this one requires, and the minimum
// version of it that satisfies the requirement.
type Dependency struct {
	Name       string
	MinVersion Version
	Optional   bool
}

// Manifest is the exported plugin-info record a shared library must
// produce: everything the load protocol needs to validate a candidate
// before constructing it.
type Manifest struct {
	ABIVersion          uint32
	Name                string
	Description         string
	Author              string
	Version             Version
	MinFrameworkVersion Version
	Dependencies        []Dependency
}

// Instance is the ABI contract exposed by a loaded plugin, resolved via
// the exported constructor/destructor pair.
type Instance interface {
	Initialize(frameworkVersion string) bool
	Shutdown()
	CreateMiddleware(cfg config.MiddlewareInstanceConfig) (middleware.Middleware, error)
	ValidateConfig(cfg config.MiddlewareInstanceConfig) error
	SupportedTypes() []string
	Info() Manifest
	IsHealthy() bool
	ConfigSchema() string
}

// InfoFunc is the signature resolved from SymbolPluginInfo.
type InfoFunc func() Manifest

// CreateFunc is the signature resolved from SymbolCreatePlugin.
type CreateFunc func() Instance

// DestroyFunc is the signature resolved from SymbolDestroyPlugin.
type DestroyFunc func(Instance)

// Result enumerates every load-protocol outcome.
type Result string

const (
	ResultSuccess              Result = "SUCCESS"
	ResultFileNotFound         Result = "FILE_NOT_FOUND"
	ResultInvalidFormat        Result = "INVALID_FORMAT"
	ResultMissingExports       Result = "MISSING_EXPORTS"
	ResultVersionMismatch      Result = "VERSION_MISMATCH"
	ResultDependencyMissing    Result = "DEPENDENCY_MISSING"
	ResultInitializationFailed Result = "INITIALIZATION_FAILED"
	ResultAlreadyLoaded        Result = "ALREADY_LOADED"
	ResultUnknownError         Result = "UNKNOWN_ERROR"
)

// LoadOutcome pairs a candidate path with its Result and, on success, the
// loaded record.
type LoadOutcome struct {
	Path   string
	Result Result
	Err    error
	Record *LoadedPlugin
}

// EventType names the kinds of events a Manager's event callback receives.
type EventType string

const (
	EventLoaded     EventType = "loaded"
	EventUnloaded   EventType = "unloaded"
	EventError      EventType = "error"
	EventHotReload  EventType = "hot_reload"
)

// EventCallback is invoked for loaded/unloaded/error/hot_reload events.
type EventCallback func(event EventType, pluginName string, message string)

var (
	errPluginNil          = errors.New("plugin: manifest or instance is nil")
	errRefCountPositive   = errors.New("plugin: cannot unload, reference count is positive")
	errCircularDependency = errors.New("plugin: circular dependency detected")
	errUnknownPlugin      = errors.New("plugin: not registered")
)
