package transcribe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	name      string
	available bool
	text      string
	err       error
	calls     int
}

func (s *stubBackend) Name() string                             { return s.name }
func (s *stubBackend) IsAvailable(ctx context.Context) bool      { return s.available }
func (s *stubBackend) Transcribe(ctx context.Context, path string, secs float64) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestChainFirstSuccessWins(t *testing.T) {
	cloud := &stubBackend{name: "cloud", available: true, err: errors.New("429 rate limit")}
	local := &stubBackend{name: "local", available: true, text: "hello transcript text"}

	chain := NewChain(context.Background(), cloud, local)
	result := chain.Run(context.Background(), "f.mp3", 60)

	require.NoError(t, result.Err)
	assert.Equal(t, "local", result.BackendName)
	assert.Equal(t, 1, cloud.calls)
	assert.Equal(t, 1, local.calls)
}

func TestChainUnavailableBackendsFiltered(t *testing.T) {
	cloud := &stubBackend{name: "cloud", available: false}
	local := &stubBackend{name: "local", available: true, text: "hello transcript text"}

	chain := NewChain(context.Background(), cloud, local)
	assert.Len(t, chain.Backends, 1)
	assert.Equal(t, "local", chain.Backends[0].Name())
}

func TestChainAllFailReturnsConcatenatedError(t *testing.T) {
	cloud := &stubBackend{name: "cloud", available: true, err: errors.New("network down")}
	local := &stubBackend{name: "local", available: true, err: errors.New("cli missing")}

	chain := NewChain(context.Background(), cloud, local)
	result := chain.Run(context.Background(), "f.mp3", 60)

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "network down")
	assert.Contains(t, result.Err.Error(), "cli missing")
}

func TestChainNoBackendsAvailable(t *testing.T) {
	chain := NewChain(context.Background())
	assert.False(t, chain.Available())
	result := chain.Run(context.Background(), "f.mp3", 60)
	assert.Error(t, result.Err)
}

func TestByModePinsBackend(t *testing.T) {
	cloud := &stubBackend{name: "cloud"}
	local := &stubBackend{name: "local"}

	assert.Equal(t, []Backend{cloud}, ByMode("cloud", cloud, local))
	assert.Equal(t, []Backend{local}, ByMode("local", cloud, local))
	assert.Equal(t, []Backend{cloud, local}, ByMode("auto", cloud, local))
	assert.Equal(t, []Backend{cloud, local}, ByMode("", cloud, local))
}
