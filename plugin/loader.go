package plugin

import (
	"fmt"
	"os"

	nativeplugin "plugin"
)

// openedPlugin is the slice of *nativeplugin.Plugin this package actually
// uses. Indirecting through it (and through pluginOpen below) lets tests
// substitute a fake loader instead of compiling and dlopen-ing real shared
// objects, which the standard plugin package cannot do in a unit test.
type openedPlugin interface {
	Lookup(symName string) (nativeplugin.Symbol, error)
}

// pluginOpen is a package-level indirection over nativeplugin.Open so tests
// can replace it with a fake. Production code never reassigns it.
var pluginOpen = func(path string) (openedPlugin, error) {
	return nativeplugin.Open(path)
}

// resolveSymbols opens path and resolves its three required exported
// symbols, the first three steps of the plugin load protocol.
func resolveSymbols(path string) (InfoFunc, CreateFunc, DestroyFunc, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s", errFileNotFound, path)
	}

	p, err := pluginOpen(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", errInvalidFormat, err)
	}

	infoSym, err := p.Lookup(SymbolPluginInfo)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: missing %s", errMissingExports, SymbolPluginInfo)
	}
	infoFn, ok := infoSym.(func() Manifest)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s has the wrong signature", errMissingExports, SymbolPluginInfo)
	}

	createSym, err := p.Lookup(SymbolCreatePlugin)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: missing %s", errMissingExports, SymbolCreatePlugin)
	}
	createFn, ok := createSym.(func() Instance)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s has the wrong signature", errMissingExports, SymbolCreatePlugin)
	}

	destroySym, err := p.Lookup(SymbolDestroyPlugin)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: missing %s", errMissingExports, SymbolDestroyPlugin)
	}
	destroyFn, ok := destroySym.(func(Instance))
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s has the wrong signature", errMissingExports, SymbolDestroyPlugin)
	}

	return InfoFunc(infoFn), CreateFunc(createFn), DestroyFunc(destroyFn), nil
}
