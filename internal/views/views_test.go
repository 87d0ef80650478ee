package views

import (
	"bytes"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/pinboard/internal/domain"
)

func render(t *testing.T, name string, data fiber.Map) string {
	t.Helper()
	engine := NewEngine()
	require.NoError(t, engine.Load())
	var buf bytes.Buffer
	require.NoError(t, engine.Render(&buf, name, data))
	return buf.String()
}

func TestLoginPageShowsError(t *testing.T) {
	out := render(t, "login", fiber.Map{"Title": "Log in", "Error": "password or username is incorrect"})
	assert.Contains(t, out, "password or username is incorrect")
	assert.Contains(t, out, `action="/login"`)
}

func TestFeedRendersPosts(t *testing.T) {
	user := &domain.User{Username: "alice", FullName: "Alice"}
	posts := []domain.Post{{ID: "p1", Title: "Sunset", Image: "a.png", UserFullName: "Bob", Author: &domain.User{Username: "bob"}}}

	out := render(t, "feed", fiber.Map{"Title": "Feed", "User": user, "Posts": posts, "Uploads": "/images/uploads"})
	assert.Contains(t, out, "/images/uploads/a.png")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, `href="/logout"`)
}

func TestProfileWithoutAvatarUsesInitial(t *testing.T) {
	user := &domain.User{Username: "zed", FullName: "Zed Z"}
	out := render(t, "profile", fiber.Map{"Title": "Profile", "User": user, "Uploads": "/images/uploads"})
	assert.Contains(t, out, `<span class="avatar">Z</span>`)
	assert.Contains(t, out, "0 posts")
}

func TestDict(t *testing.T) {
	m, err := dict("a", 1, "b", "two")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)

	_, err = dict("a")
	assert.Error(t, err)
	_, err = dict(1, 2)
	assert.Error(t, err)
}
