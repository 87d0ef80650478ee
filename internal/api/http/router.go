package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pinboard/internal/api/http/handlers"
	"github.com/spec-kit/pinboard/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Pages   *handlers.PagesHandler
	Posts   *handlers.PostsHandler
	Gate    *auth.SessionGate
	Uploads StaticDir
}

// StaticDir maps a public URL prefix onto a directory on disk.
type StaticDir struct {
	Prefix string
	Root   string
}

// RegisterRoutes wires HTTP routes. Routes carrying the gate handler are only
// reachable with a live session.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	if cfg.Uploads.Prefix != "" && cfg.Uploads.Root != "" {
		app.Static(cfg.Uploads.Prefix, cfg.Uploads.Root)
	}

	app.Get("/", cfg.Auth.Index)
	app.Post("/register", cfg.Auth.Register)
	app.Get(auth.LoginPath, cfg.Auth.LoginPage)
	app.Post(auth.LoginPath, cfg.Auth.Login)
	app.Get("/logout", cfg.Auth.Logout)

	gate := cfg.Gate.Handle
	app.Get("/editprofile", gate, cfg.Pages.EditProfile)
	app.Get("/feed", gate, cfg.Pages.Feed)
	app.Get("/profile", gate, cfg.Pages.Profile)
	app.Get("/show/posts", gate, cfg.Pages.ShowPosts)
	app.Get("/add", gate, cfg.Pages.Add)
	app.Delete("/deletepost/:postId", gate, cfg.Posts.DeletePost)
	app.Post("/createpost", gate, cfg.Posts.CreatePost)
	app.Post("/fileupload", gate, cfg.Posts.FileUpload)
}
