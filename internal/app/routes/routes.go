package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/christiangarcia0311/stream-server/internal/app/controllers"
	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/middleware"
)

// Controllers groups every HTTP handler the router mounts
type Controllers struct {
	Auth         *controllers.AuthController
	User         *controllers.UserController
	Community    *controllers.CommunityController
	Content      *controllers.ContentController
	Notification *controllers.NotificationController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	users := authenticated.Group("/users")
	{
		users.GET("", c.User.ListUsers)
		users.GET("/me", c.User.GetMe)
		users.PATCH("/me/profile", c.User.UpdateProfile)
		users.PUT("/me/password", c.User.ChangePassword)

		users.GET("/:username", c.User.GetProfile)
		users.POST("/:username/follow", c.User.Follow)
		users.DELETE("/:username/follow", c.User.Unfollow)
		users.GET("/:username/followers", c.User.ListFollowers)
		users.GET("/:username/following", c.User.ListFollowing)
	}

	communities := authenticated.Group("/communities")
	{
		communities.GET("", c.Community.GetAllCommunities)
		communities.GET("/mine", c.Community.GetMyCommunities)
		communities.POST("", c.Community.CreateCommunity)
		communities.GET("/:id", c.Community.GetCommunityByID)

		// Superuser-only administration
		admin := communities.Group("")
		admin.Use(authMiddleware.SuperuserRequired())
		{
			admin.PATCH("/:id", c.Community.UpdateCommunity)
			admin.DELETE("/:id", c.Community.DeleteCommunity)
		}

		communities.GET("/:id/members", c.Community.GetMembers)
		communities.POST("/:id/members", c.Community.JoinCommunity)
		communities.DELETE("/:id/members", c.Community.LeaveCommunity)
		communities.PUT("/:id/members/:membershipId/role", c.Community.SetMemberRole)

		communities.GET("/:id/posts", c.Content.GetCommunityPosts)
	}

	posts := authenticated.Group("/posts")
	{
		posts.GET("", c.Content.GetPosts)
		posts.GET("/mine", c.Content.GetMyPosts)
		posts.POST("", c.Content.CreatePost)
		posts.GET("/:id", c.Content.GetPostByID)
		posts.PATCH("/:id", c.Content.UpdatePost)
		posts.DELETE("/:id", c.Content.DeletePost)
		posts.PUT("/:id/pin", c.Content.PinPost)
		posts.POST("/:id/like", c.Content.TogglePostLike)

		posts.GET("/:id/comments", c.Content.GetComments)
		posts.POST("/:id/comments", c.Content.CreateComment)
	}

	comments := authenticated.Group("/comments")
	{
		comments.PATCH("/:id", c.Content.UpdateComment)
		comments.DELETE("/:id", c.Content.DeleteComment)
		comments.POST("/:id/like", c.Content.ToggleCommentLike)

		comments.GET("/:id/replies", c.Content.GetReplies)
		comments.POST("/:id/replies", c.Content.CreateReply)
	}

	replies := authenticated.Group("/replies")
	{
		replies.PATCH("/:id", c.Content.UpdateReply)
		replies.DELETE("/:id", c.Content.DeleteReply)
		replies.POST("/:id/like", c.Content.ToggleReplyLike)
	}

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("", c.Notification.GetNotifications)
		notifications.GET("/unread-count", c.Notification.GetUnreadCount)
		notifications.PUT("/read-all", c.Notification.MarkAllRead)
		notifications.PUT("/:id/read", c.Notification.MarkRead)
		notifications.DELETE("/:id", c.Notification.DeleteNotification)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})
}
