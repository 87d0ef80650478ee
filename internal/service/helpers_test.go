package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/pinboard/internal/config"
	"github.com/spec-kit/pinboard/internal/domain"
	"github.com/spec-kit/pinboard/internal/events"
	"github.com/spec-kit/pinboard/internal/repository"
	"github.com/spec-kit/pinboard/internal/session"
)

type recordedEvents struct {
	types []events.EventType
	last  map[events.EventType]events.Event
}

func recordAll(d events.Dispatcher) *recordedEvents {
	rec := &recordedEvents{last: map[events.EventType]events.Event{}}
	for _, et := range []events.EventType{
		events.EventUserRegistered, events.EventUserLoggedIn, events.EventUserLoggedOut,
		events.EventPostCreated, events.EventPostDeleted, events.EventAvatarUpdated,
	} {
		d.Subscribe(et, func(_ context.Context, e events.Event) error {
			rec.types = append(rec.types, e.Type)
			rec.last[e.Type] = e
			return nil
		})
	}
	return rec
}

type authFixture struct {
	svc      *AuthService
	mem      *repository.Memory
	sessions *session.Store
	mr       *miniredis.Miniredis
	events   *recordedEvents
}

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{SessionSecret: "test-secret", BcryptCost: 4}}
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	mem := repository.NewMemory()
	sessions := session.NewStore(rdb, "svc", time.Hour)
	dispatcher := events.NewInMemoryDispatcher(nil)
	rec := recordAll(dispatcher)

	svc := NewAuthService(testConfig(), AuthDependencies{
		UserRepo:   mem.Users(),
		Sessions:   sessions,
		Dispatcher: dispatcher,
	})
	return &authFixture{svc: svc, mem: mem, sessions: sessions, mr: mr, events: rec}
}

func (f *authFixture) register(t *testing.T, username string) *domain.User {
	t.Helper()
	user, _, _, err := f.svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: "pw-" + username,
	})
	require.NoError(t, err)
	return user
}
