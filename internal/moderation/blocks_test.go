package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/internal/domain"
	dErrors "kindred/pkg/domainerrors"
)

func TestBlockAndUnblock(t *testing.T) {
	svc, st, _ := newTestService(t)
	blocks := NewBlockService(svc.guard, st.Blocks, svc.audit)
	ctx := context.Background()

	require.NoError(t, blocks.Block(ctx, "u1", "u2"))
	exists, err := st.Blocks.ExistsBetween(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, exists)

	// The new edge now gates the pair like any other interaction.
	err = blocks.Block(ctx, "u2", "u1")
	assert.True(t, dErrors.Is(err, dErrors.CodeBlocked))

	require.NoError(t, blocks.Unblock(ctx, "u1", "u2"))
	exists, err = st.Blocks.ExistsBetween(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, exists)

	// Unblocking again stays quiet.
	assert.NoError(t, blocks.Unblock(ctx, "u1", "u2"))
}

func TestBlockSelfDenied(t *testing.T) {
	svc, st, _ := newTestService(t)
	blocks := NewBlockService(svc.guard, st.Blocks, svc.audit)

	err := blocks.Block(context.Background(), "u1", "u1")
	assert.True(t, dErrors.Is(err, dErrors.CodeSelfTarget))
}

func TestBlockHiddenTargetAllowed(t *testing.T) {
	svc, st, _ := newTestService(t)
	blocks := NewBlockService(svc.guard, st.Blocks, svc.audit)
	ctx := context.Background()

	require.NoError(t, st.Privacy.Put(ctx, domain.PrivacySettings{UserID: "u2", ProfileVisible: false}))
	assert.NoError(t, blocks.Block(ctx, "u1", "u2"), "visibility never shields a user from being blocked")
}
