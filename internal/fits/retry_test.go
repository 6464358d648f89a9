package fits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/format-analysis/internal/resilience"
)

// flakyCharacterizer fails the first n per-file calls with err.
type flakyCharacterizer struct {
	n     int
	err   error
	calls int
}

func (f *flakyCharacterizer) CharacterizeTree(context.Context, string, string) error {
	f.calls++
	return f.err
}

func (f *flakyCharacterizer) CharacterizeFile(context.Context, string, string) error {
	f.calls++
	if f.calls <= f.n {
		return f.err
	}
	return nil
}

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestWithRetry_SingleAttemptIsPassthrough(t *testing.T) {
	c := &flakyCharacterizer{}
	assert.Same(t, c, WithRetry(c, fastRetry(1)))
}

func TestWithRetry_RecoversFromFlakyRun(t *testing.T) {
	c := &flakyCharacterizer{n: 2, err: errors.New("exit status 137")}
	err := WithRetry(c, fastRetry(3)).CharacterizeFile(context.Background(), "/acc/a.txt", "/out.xml")
	require.NoError(t, err)
	assert.Equal(t, 3, c.calls)
}

func TestWithRetry_ToolLoadNotRetried(t *testing.T) {
	c := &flakyCharacterizer{n: 5, err: ErrToolLoad}
	err := WithRetry(c, fastRetry(3)).CharacterizeFile(context.Background(), "/acc/a.txt", "/out.xml")
	assert.ErrorIs(t, err, ErrToolLoad)
	assert.True(t, resilience.IsPermanent(err))
	assert.Equal(t, 1, c.calls)
}

func TestWithRetry_TreeNotRetried(t *testing.T) {
	c := &flakyCharacterizer{err: errors.New("boom")}
	err := WithRetry(c, fastRetry(3)).CharacterizeTree(context.Background(), "/acc", "/acc_FITS")
	assert.Error(t, err)
	assert.Equal(t, 1, c.calls)
}
