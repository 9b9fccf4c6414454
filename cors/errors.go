package cors

import "errors"

// errWildcardWithCredentials is returned by NewMiddleware when a
// configuration combines a wildcard origin with allowed credentials, a
// combination browsers refuse to honor.
var errWildcardWithCredentials = errors.New("cors: wildcard origin cannot be combined with AllowCredentials")
