// internal/repository/result_test.go
package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultTagging(t *testing.T) {
	ok := Ok(42)
	assert.True(t, ok.IsSuccess())
	assert.Equal(t, 42, ok.Value)

	cause := errors.New("boom")
	fail := Fail[int](cause)
	assert.False(t, fail.IsSuccess())
	assert.ErrorIs(t, fail.Err, cause)
}

func TestSendRespectsContext(t *testing.T) {
	out := make(chan Result[int])
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Nobody is reading; a cancelled observer must not block the producer.
	delivered := send(ctx, out, Ok(1))
	assert.False(t, delivered)
}

func TestCollectDrainsToCompletion(t *testing.T) {
	out := make(chan Result[string], 2)
	out <- Ok("cache")
	out <- Ok("remote")
	close(out)

	results := Collect(out)
	assert.Len(t, results, 2)
	assert.Equal(t, "cache", results[0].Value)
	assert.Equal(t, "remote", results[1].Value)
}
