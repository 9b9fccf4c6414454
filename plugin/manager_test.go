package plugin

import (
	"testing"
	"time"

	nativeplugin "plugin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iruldev/switchboard/config"
	"github.com/iruldev/switchboard/factory"
	"github.com/iruldev/switchboard/middleware"
)

type fakeInstance struct {
	manifest       Manifest
	initOK         bool
	healthy        bool
	supportedTypes []string
	shutdownCalled bool
}

func (f *fakeInstance) Initialize(frameworkVersion string) bool { return f.initOK }
func (f *fakeInstance) Shutdown()                                { f.shutdownCalled = true }
func (f *fakeInstance) CreateMiddleware(cfg config.MiddlewareInstanceConfig) (middleware.Middleware, error) {
	return nil, nil
}
func (f *fakeInstance) ValidateConfig(cfg config.MiddlewareInstanceConfig) error { return nil }
func (f *fakeInstance) SupportedTypes() []string                                { return f.supportedTypes }
func (f *fakeInstance) Info() Manifest                                          { return f.manifest }
func (f *fakeInstance) IsHealthy() bool                                         { return f.healthy }
func (f *fakeInstance) ConfigSchema() string                                    { return "{}" }

func fakeSymbols(inst *fakeInstance) map[string]nativeplugin.Symbol {
	return map[string]nativeplugin.Symbol{
		SymbolPluginInfo:    func() Manifest { return inst.manifest },
		SymbolCreatePlugin:  func() Instance { return inst },
		SymbolDestroyPlugin: func(Instance) {},
	}
}

func TestLoadPlugin_SucceedsAndRegistersSupportedTypes(t *testing.T) {
	path := touchFile(t)
	inst := &fakeInstance{
		manifest: Manifest{
			ABIVersion:          ABIVersion,
			Name:                "acme",
			Version:             Version{1, 0, 0},
			MinFrameworkVersion: Version{1, 0, 0},
		},
		initOK:         true,
		supportedTypes: []string{"acme_throttle"},
	}
	withFakeOpen(t, fakeSymbols(inst))

	f := factory.New()
	m := NewManager(f, nil)
	outcome := m.LoadPlugin(path)

	require.Equal(t, ResultSuccess, outcome.Result)
	assert.True(t, m.IsLoaded("acme"))
	assert.Contains(t, f.Names(), "acme_throttle")
}

func TestLoadPlugin_RejectsDuplicateName(t *testing.T) {
	path := touchFile(t)
	inst := &fakeInstance{
		manifest: Manifest{ABIVersion: ABIVersion, Name: "acme", Version: Version{1, 0, 0}},
		initOK:   true,
	}
	withFakeOpen(t, fakeSymbols(inst))

	m := NewManager(factory.New(), nil)
	require.Equal(t, ResultSuccess, m.LoadPlugin(path).Result)

	outcome := m.LoadPlugin(path)
	assert.Equal(t, ResultAlreadyLoaded, outcome.Result)
}

func TestLoadPlugin_RejectsABIMismatch(t *testing.T) {
	path := touchFile(t)
	inst := &fakeInstance{manifest: Manifest{ABIVersion: ABIVersion + 1, Name: "acme"}, initOK: true}
	withFakeOpen(t, fakeSymbols(inst))

	m := NewManager(factory.New(), nil)
	outcome := m.LoadPlugin(path)
	assert.Equal(t, ResultVersionMismatch, outcome.Result)
}

func TestLoadPlugin_RejectsFrameworkVersionTooOld(t *testing.T) {
	path := touchFile(t)
	inst := &fakeInstance{
		manifest: Manifest{
			ABIVersion:          ABIVersion,
			Name:                "acme",
			MinFrameworkVersion: Version{99, 0, 0},
		},
		initOK: true,
	}
	withFakeOpen(t, fakeSymbols(inst))

	m := NewManager(factory.New(), nil)
	outcome := m.LoadPlugin(path)
	assert.Equal(t, ResultVersionMismatch, outcome.Result)
}

func TestLoadPlugin_RejectsMissingRequiredDependency(t *testing.T) {
	path := touchFile(t)
	inst := &fakeInstance{
		manifest: Manifest{
			ABIVersion: ABIVersion,
			Name:       "acme",
			Dependencies: []Dependency{
				{Name: "base", MinVersion: Version{1, 0, 0}},
			},
		},
		initOK: true,
	}
	withFakeOpen(t, fakeSymbols(inst))

	m := NewManager(factory.New(), nil)
	outcome := m.LoadPlugin(path)
	assert.Equal(t, ResultDependencyMissing, outcome.Result)
}

func TestLoadPlugin_SucceedsWhenDependencySatisfied(t *testing.T) {
	m := NewManager(factory.New(), nil)

	basePath := touchFile(t)
	baseInst := &fakeInstance{
		manifest: Manifest{ABIVersion: ABIVersion, Name: "base", Version: Version{1, 0, 0}},
		initOK:   true,
	}
	withFakeOpen(t, fakeSymbols(baseInst))
	require.Equal(t, ResultSuccess, m.LoadPlugin(basePath).Result)

	depPath := touchFile(t)
	depInst := &fakeInstance{
		manifest: Manifest{
			ABIVersion: ABIVersion,
			Name:       "dependent",
			Dependencies: []Dependency{
				{Name: "base", MinVersion: Version{1, 0, 0}},
			},
		},
		initOK: true,
	}
	withFakeOpen(t, fakeSymbols(depInst))
	outcome := m.LoadPlugin(depPath)
	assert.Equal(t, ResultSuccess, outcome.Result)
}

func TestLoadPlugin_InitializationFailureIsReported(t *testing.T) {
	path := touchFile(t)
	inst := &fakeInstance{manifest: Manifest{ABIVersion: ABIVersion, Name: "acme"}, initOK: false}
	withFakeOpen(t, fakeSymbols(inst))

	m := NewManager(factory.New(), nil)
	outcome := m.LoadPlugin(path)
	assert.Equal(t, ResultInitializationFailed, outcome.Result)
}

func TestUnloadPlugin_RefusesWhilePositiveRefCount(t *testing.T) {
	path := touchFile(t)
	inst := &fakeInstance{manifest: Manifest{ABIVersion: ABIVersion, Name: "acme"}, initOK: true}
	withFakeOpen(t, fakeSymbols(inst))

	m := NewManager(factory.New(), nil)
	require.Equal(t, ResultSuccess, m.LoadPlugin(path).Result)

	m.IncrementRef("acme")
	assert.Error(t, m.UnloadPlugin("acme"))

	m.DecrementRef("acme")
	assert.NoError(t, m.UnloadPlugin("acme"))
	assert.True(t, inst.shutdownCalled)
}

func TestForceUnloadPlugin_BypassesRefCount(t *testing.T) {
	path := touchFile(t)
	inst := &fakeInstance{manifest: Manifest{ABIVersion: ABIVersion, Name: "acme"}, initOK: true}
	withFakeOpen(t, fakeSymbols(inst))

	m := NewManager(factory.New(), nil)
	require.Equal(t, ResultSuccess, m.LoadPlugin(path).Result)
	m.IncrementRef("acme")

	assert.NoError(t, m.ForceUnloadPlugin("acme"))
	assert.False(t, m.IsLoaded("acme"))
}

func TestUnloadAllPlugins_UnloadsDependentsBeforeDependencies(t *testing.T) {
	m := NewManager(factory.New(), nil)

	basePath := touchFile(t)
	baseInst := &fakeInstance{manifest: Manifest{ABIVersion: ABIVersion, Name: "base", Version: Version{1, 0, 0}}, initOK: true}
	withFakeOpen(t, fakeSymbols(baseInst))
	require.Equal(t, ResultSuccess, m.LoadPlugin(basePath).Result)

	depPath := touchFile(t)
	depInst := &fakeInstance{
		manifest: Manifest{
			ABIVersion:   ABIVersion,
			Name:         "dependent",
			Dependencies: []Dependency{{Name: "base", MinVersion: Version{1, 0, 0}}},
		},
		initOK: true,
	}
	withFakeOpen(t, fakeSymbols(depInst))
	require.Equal(t, ResultSuccess, m.LoadPlugin(depPath).Result)

	var order []string
	m.onEvent = func(event EventType, name, message string) {
		if event == EventUnloaded {
			order = append(order, name)
		}
	}

	require.NoError(t, m.UnloadAllPlugins(false))
	require.Len(t, order, 2)
	assert.Equal(t, "dependent", order[0])
	assert.Equal(t, "base", order[1])
}

func TestHealthChecks_UnloadUnhealthyPluginWithZeroRefCount(t *testing.T) {
	path := touchFile(t)
	inst := &fakeInstance{manifest: Manifest{ABIVersion: ABIVersion, Name: "acme"}, initOK: true, healthy: true}
	withFakeOpen(t, fakeSymbols(inst))

	m := NewManager(factory.New(), nil)
	require.Equal(t, ResultSuccess, m.LoadPlugin(path).Result)

	inst.healthy = false
	m.runHealthChecks()

	assert.False(t, m.IsLoaded("acme"))
}

func TestStartStopHealthChecks_IsIdempotentAndStoppable(t *testing.T) {
	m := NewManager(factory.New(), nil)
	m.StartHealthChecks(10 * time.Millisecond)
	m.StartHealthChecks(10 * time.Millisecond) // second call is a no-op
	m.StopHealthChecks()
	m.StopHealthChecks() // safe to call again
}

func TestIsLoaded_FalseForUnknownName(t *testing.T) {
	m := NewManager(factory.New(), nil)
	assert.False(t, m.IsLoaded("nope"))
}
