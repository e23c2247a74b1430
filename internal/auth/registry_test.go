package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFederator struct {
	id     string
	result Result
	calls  int
}

func (f *stubFederator) ID() string   { return f.id }
func (f *stubFederator) Name() string { return ProviderName(f.id) }

func (f *stubFederator) SignIn(ctx context.Context) Result {
	f.calls++
	return f.result
}

func TestRegistry(t *testing.T) {
	google := &stubFederator{id: "google"}
	r := NewRegistry(google)

	got, ok := r.Get("google")
	require.True(t, ok)
	assert.Same(t, google, got)

	_, ok = r.Get("github")
	assert.False(t, ok)

	err := r.Register(&stubFederator{id: "google"})
	assert.True(t, IsAuthError(err, ErrDuplicateProvider))

	assert.Equal(t, []string{"google"}, r.IDs())
}

func TestRegistryRejectsUndeclaredProviders(t *testing.T) {
	err := NewRegistry().Register(&stubFederator{id: "github"})
	assert.True(t, IsAuthError(err, ErrUnsupportedProvider))

	r := NewRegistry(&stubFederator{id: "github"}, &stubFederator{id: "google"})
	assert.Equal(t, []string{"google"}, r.IDs())
}
