package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BasicRegistration(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("/api/users", "GET", "handler"))

	result, ok := reg.Find("GET", "/api/users")
	require.True(t, ok)
	assert.Equal(t, "handler", result.Handler)
	assert.Empty(t, result.PathParams)
}

func TestRegistry_MethodSpecificRoutes(t *testing.T) {
	reg := NewRegistry()
	for _, m := range []string{"GET", "POST", "PUT", "DELETE"} {
		require.NoError(t, reg.Register("/api/users", m, m))
	}

	for _, m := range []string{"GET", "POST", "PUT", "DELETE"} {
		result, ok := reg.Find(m, "/api/users")
		require.True(t, ok)
		assert.Equal(t, m, result.Handler)
	}
}

func TestRegistry_ParameterizedRoute(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("/api/users/{id}", "GET", "h"))

	result, ok := reg.Find("GET", "/api/users/123")
	require.True(t, ok)
	assert.Equal(t, "123", result.PathParams["id"])
}

func TestRegistry_MultipleParameterizedRoute(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("/api/users/{userId}/posts/{postId}", "GET", "h"))

	result, ok := reg.Find("GET", "/api/users/456/posts/789")
	require.True(t, ok)
	assert.Equal(t, "456", result.PathParams["userId"])
	assert.Equal(t, "789", result.PathParams["postId"])

	// POST for the same path has no handler registered.
	_, ok = reg.Find("POST", "/api/users/456/posts/789")
	assert.False(t, ok)
}

func TestRegistry_RouteNotFound(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("/api/users", "GET", "h"))

	_, ok := reg.Find("GET", "/api/posts")
	assert.False(t, ok)
}

func TestRegistry_MethodNotAllowed(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("/api/users", "GET", "h"))

	_, ok := reg.Find("POST", "/api/users")
	assert.False(t, ok)
	assert.True(t, reg.PathExists("/api/users"))
}

func TestRegistry_WildcardRoute(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("/api/*", "GET", "h"))

	for _, p := range []string{"/api/users", "/api/users/123", "/api/posts/456/comments", "/api"} {
		_, ok := reg.Find("GET", p)
		assert.True(t, ok, "expected %q to match", p)
	}

	_, ok := reg.Find("GET", "/other/path")
	assert.False(t, ok)
}

func TestRegistry_WildcardMatchesZeroRemainingSegments(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("/api/*", "GET", "h"))

	_, ok := reg.Find("GET", "/api")
	assert.True(t, ok)
}

func TestRegistry_InvalidNonTerminalWildcardRejected(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register("/api/*/users", "GET", "h")
	assert.Error(t, err)
}

func TestRegistry_ReRegisterOverwrites(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("/api/users", "GET", "first"))
	require.NoError(t, reg.Register("/api/users", "GET", "second"))

	result, ok := reg.Find("GET", "/api/users")
	require.True(t, ok)
	assert.Equal(t, "second", result.Handler)
}

func TestRegistry_PrecedenceMoreLiteralSegmentsWins(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("/api/users/{id}", "GET", "placeholder"))
	require.NoError(t, reg.Register("/api/users/active", "GET", "literal"))

	result, ok := reg.Find("GET", "/api/users/active")
	require.True(t, ok)
	assert.Equal(t, "literal", result.Handler)
}

func TestRegistry_PrecedenceFewerPlaceholdersWins(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("/api/{a}/{b}/*", "GET", "two"))
	require.NoError(t, reg.Register("/api/{a}/*", "GET", "one"))

	result, ok := reg.Find("GET", "/api/x/y/z")
	require.True(t, ok)
	assert.Equal(t, "one", result.Handler)
}

func TestRegistry_SeedScenario_UsersPosts(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("/api/users/{id}/posts/{postId}", "GET", "H"))

	result, ok := reg.Find("GET", "/api/users/456/posts/789")
	require.True(t, ok)
	assert.Equal(t, "H", result.Handler)
	assert.Equal(t, map[string]string{"id": "456", "postId": "789"}, result.PathParams)

	_, ok = reg.Find("POST", "/api/users/456/posts/789")
	assert.False(t, ok)
}
