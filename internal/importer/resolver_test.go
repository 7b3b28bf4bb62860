package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmate/internal/model"
)

type fakeChecker struct {
	existing map[string]bool
	err      error
}

func (f fakeChecker) SerialExists(_ context.Context, serial string) (bool, error) {
	return f.existing[serial], f.err
}

func fixedResolver(checker SerialChecker) *Resolver {
	return &Resolver{
		checker: checker,
		now:     func() time.Time { return time.UnixMilli(1700000000000) },
		suffix:  func() string { return "abc123" },
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := fixedResolver(fakeChecker{existing: map[string]bool{"TAKEN": true}})

	got, err := r.Resolve(ctx, &model.Product{SerialNumber: "FREE"})
	require.NoError(t, err)
	assert.Equal(t, "FREE", got)

	got, err = r.Resolve(ctx, &model.Product{SerialNumber: " TAKEN "})
	require.NoError(t, err)
	assert.Equal(t, "TAKEN-1700000000000-abc123", got)

	got, err = r.Resolve(ctx, &model.Product{Brand: "HP", Model: "ProBook"})
	require.NoError(t, err)
	assert.Equal(t, "HP-ProBook-1700000000000-abc123", got)
}

func TestResolve_CheckerError(t *testing.T) {
	t.Parallel()

	r := fixedResolver(fakeChecker{err: errors.New("boom")})
	_, err := r.Resolve(context.Background(), &model.Product{SerialNumber: "X"})
	assert.EqualError(t, err, "boom")
}

func TestShortRandom(t *testing.T) {
	t.Parallel()

	a, b := shortRandom(), shortRandom()
	assert.Len(t, a, 6)
	assert.NotEqual(t, a, b)
}
