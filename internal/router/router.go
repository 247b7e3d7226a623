package router

import (
	"github.com/gin-gonic/gin"

	"github.com/teamtrack/teamtrack-api/internal/handler"
	"github.com/teamtrack/teamtrack-api/internal/middleware"
	"github.com/teamtrack/teamtrack-api/internal/models"
	"github.com/teamtrack/teamtrack-api/internal/service"
)

// Handlers bundles every HTTP handler mounted by the router.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Tasks         *handler.TaskHandler
	Projects      *handler.ProjectHandler
	Completions   *handler.CompletionHandler
	Comments      *handler.CommentHandler
	Notifications *handler.NotificationHandler
	Exports       *handler.ExportHandler
}

// Register mounts all API routes under the given prefix. Everything except
// login requires a valid token; write routes carry role restrictions on top.
func Register(r *gin.Engine, prefix string, auth *service.AuthService, h Handlers) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	api.GET("/attachments/:token", h.Completions.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.GET("/auth/me", h.Auth.Me)

	users := protected.Group("/users")
	{
		users.GET("", h.Users.List)
		users.GET("/:id", h.Users.Get)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), h.Users.Create)
	}

	tasks := protected.Group("/tasks")
	{
		tasks.GET("", h.Tasks.List)
		tasks.GET("/:id", h.Tasks.Get)
		tasks.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.Tasks.Create)
		tasks.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.Tasks.Update)
		tasks.PATCH("/:id/status", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.Tasks.SetStatus)
		tasks.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.Tasks.Delete)

		tasks.GET("/:id/status", h.Completions.DisplayStatus(models.KindTask))
		tasks.POST("/:id/completion-requests", h.Completions.Submit(models.KindTask))
		tasks.GET("/:id/completion-requests", h.Completions.ListForItem(models.KindTask))

		tasks.GET("/:id/comments", h.Comments.ListByTask)
		tasks.POST("/:id/comments", h.Comments.Create)
	}

	projects := protected.Group("/projects")
	{
		projects.GET("", h.Projects.List)
		projects.GET("/:id", h.Projects.Get)
		projects.POST("", middleware.RequireRoles(models.RoleAdmin), h.Projects.Create)
		projects.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), h.Projects.Update)
		projects.PATCH("/:id/status", middleware.RequireRoles(models.RoleAdmin), h.Projects.SetStatus)
		projects.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), h.Projects.Delete)

		projects.GET("/:id/status", h.Completions.DisplayStatus(models.KindProject))
		projects.POST("/:id/completion-requests", h.Completions.Submit(models.KindProject))
		projects.GET("/:id/completion-requests", h.Completions.ListForItem(models.KindProject))
	}

	completions := protected.Group("/completion-requests")
	{
		completions.GET("/pending", h.Completions.PendingQueue)
		completions.GET("/:id/attachments", h.Completions.Attachments)
		completions.POST("/:id/review", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.Completions.Review)
	}

	comments := protected.Group("/comments")
	{
		comments.PUT("/:id", h.Comments.Update)
		comments.DELETE("/:id", h.Comments.Delete)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.Notifications.List)
		notifications.GET("/unread-count", h.Notifications.UnreadCount)
		notifications.PATCH("/read-all", h.Notifications.MarkAllRead)
		notifications.PATCH("/:id/read", h.Notifications.MarkRead)
		notifications.DELETE("/:id", h.Notifications.Delete)
	}

	protected.GET("/exports/completion-history", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.Exports.History)
}
