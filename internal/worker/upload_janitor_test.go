package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/pinboard/internal/events"
)

type recordingRemover struct {
	removed []string
}

func (r *recordingRemover) Remove(name string) error {
	r.removed = append(r.removed, name)
	return nil
}

type avatarRefs map[string]int

func (a avatarRefs) CountAvatarReferences(_ context.Context, image string) (int, error) {
	if image == "broken.png" {
		return 0, errors.New("db down")
	}
	return a[image], nil
}

func TestUploadJanitor(t *testing.T) {
	d := events.NewInMemoryDispatcher(nil)
	files := &recordingRemover{}
	StartUploadJanitor(d, files, avatarRefs{}, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, d.Publish(ctx, events.Event{
		Type:    events.EventPostDeleted,
		Payload: events.PostDeletedPayload{PostID: "p1", Image: "post.png"},
	}))
	require.NoError(t, d.Publish(ctx, events.Event{
		Type:    events.EventAvatarUpdated,
		Payload: events.AvatarUpdatedPayload{OldImage: "old.png", NewImage: "new.png"},
	}))
	require.NoError(t, d.Publish(ctx, events.Event{
		Type:    events.EventAvatarUpdated,
		Payload: events.AvatarUpdatedPayload{NewImage: "first.png"},
	}))

	assert.Equal(t, []string{"post.png", "old.png"}, files.removed)
}

func TestUploadJanitorKeepsReferencedAvatar(t *testing.T) {
	d := events.NewInMemoryDispatcher(nil)
	files := &recordingRemover{}
	refs := avatarRefs{"old.png": 1}
	StartUploadJanitor(d, files, refs, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, d.Publish(ctx, events.Event{
		Type:    events.EventAvatarUpdated,
		Payload: events.AvatarUpdatedPayload{OldImage: "old.png", NewImage: "new.png"},
	}))
	assert.Empty(t, files.removed)

	// The last post carrying the old avatar goes away.
	refs["old.png"] = 0
	require.NoError(t, d.Publish(ctx, events.Event{
		Type:    events.EventPostDeleted,
		Payload: events.PostDeletedPayload{PostID: "p1", Image: "post.png", AuthorImage: "old.png"},
	}))
	assert.Equal(t, []string{"post.png", "old.png"}, files.removed)
}

func TestUploadJanitorKeepsAvatarWhenLookupFails(t *testing.T) {
	d := events.NewInMemoryDispatcher(nil)
	files := &recordingRemover{}
	StartUploadJanitor(d, files, avatarRefs{}, zap.NewNop())

	err := d.Publish(context.Background(), events.Event{
		Type:    events.EventAvatarUpdated,
		Payload: events.AvatarUpdatedPayload{OldImage: "broken.png", NewImage: "new.png"},
	})
	assert.Error(t, err)
	assert.Empty(t, files.removed)
}
