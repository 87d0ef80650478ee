package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/pinboard/internal/events"
)

// FileRemover deletes stored uploads by name.
type FileRemover interface {
	Remove(name string) error
}

// AvatarReferences reports how many users and post snapshots still point at an avatar file.
type AvatarReferences interface {
	CountAvatarReferences(ctx context.Context, image string) (int, error)
}

// StartUploadJanitor removes a deleted post's image, and removes an avatar file once
// neither a user nor any post's author snapshot references it.
func StartUploadJanitor(dispatcher events.Dispatcher, files FileRemover, avatars AvatarReferences, logger *zap.Logger) {
	if dispatcher == nil || files == nil || avatars == nil {
		return
	}
	remove := func(name string) error {
		if name == "" {
			return nil
		}
		if err := files.Remove(name); err != nil {
			return err
		}
		logger.Debug("removed orphaned upload", zap.String("file", name))
		return nil
	}
	removeAvatar := func(ctx context.Context, name string) error {
		if name == "" {
			return nil
		}
		refs, err := avatars.CountAvatarReferences(ctx, name)
		if err != nil {
			return err
		}
		if refs > 0 {
			return nil
		}
		return remove(name)
	}

	dispatcher.Subscribe(events.EventPostDeleted, func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.PostDeletedPayload)
		if !ok {
			return nil
		}
		if err := remove(payload.Image); err != nil {
			return err
		}
		return removeAvatar(ctx, payload.AuthorImage)
	})
	dispatcher.Subscribe(events.EventAvatarUpdated, func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.AvatarUpdatedPayload)
		if !ok || payload.OldImage == payload.NewImage {
			return nil
		}
		return removeAvatar(ctx, payload.OldImage)
	})
}
