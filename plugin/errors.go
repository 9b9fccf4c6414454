package plugin

import "errors"

// Sentinel errors classifying load-protocol failures; classifyResult maps
// each to its Result so callers get both a Go error and the matching
// enum value.
var (
	errFileNotFound      = errors.New("plugin: file not found")
	errInvalidFormat     = errors.New("plugin: invalid shared object format")
	errMissingExports    = errors.New("plugin: missing required exported symbol")
	errVersionMismatch   = errors.New("plugin: ABI or framework version mismatch")
	errDependencyMissing = errors.New("plugin: required dependency not loaded")
	errInitFailed        = errors.New("plugin: initialization returned false")
	errAlreadyLoaded     = errors.New("plugin: already loaded")
)

func classifyResult(err error) Result {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, errFileNotFound):
		return ResultFileNotFound
	case errors.Is(err, errInvalidFormat):
		return ResultInvalidFormat
	case errors.Is(err, errMissingExports):
		return ResultMissingExports
	case errors.Is(err, errVersionMismatch):
		return ResultVersionMismatch
	case errors.Is(err, errDependencyMissing):
		return ResultDependencyMissing
	case errors.Is(err, errInitFailed):
		return ResultInitializationFailed
	case errors.Is(err, errAlreadyLoaded):
		return ResultAlreadyLoaded
	default:
		return ResultUnknownError
	}
}
