package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/app/services"
	"github.com/christiangarcia0311/stream-server/internal/middleware"
)

// UserController handles profiles and follows
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService) *UserController {
	return &UserController{userService: userService}
}

// GetMe returns the caller's own profile with cooldown information
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserProfileResponse}
// @Router /users/me [get]
func (c *UserController) GetMe(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	profile, err := c.userService.GetMe(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}

// UpdateProfile applies a partial profile update
// @Summary Update profile details
// @Description Allowed once per cooldown window.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.UserProfileResponse}
// @Failure 403 {object} dto.APIResponse "Cooldown active"
// @Router /users/me/profile [patch]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	profile, err := c.userService.UpdateProfileDetails(ctx.Request.Context(), user, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile, "Profile updated"))
}

// ChangePassword changes the caller's password.
func (c *UserController) ChangePassword(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.userService.ChangePassword(ctx.Request.Context(), user, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Password changed"))
}

func (c *UserController) ListUsers(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	users, err := c.userService.ListUsers(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}

// GetProfile returns another user's profile by username
// @Summary Get a profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} dto.APIResponse{data=dto.UserProfileResponse}
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /users/{username} [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	profile, err := c.userService.GetProfile(ctx.Request.Context(), user, ctx.Param("username"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}

func (c *UserController) Follow(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	resp, err := c.userService.Follow(ctx.Request.Context(), user, ctx.Param("username"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

func (c *UserController) Unfollow(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	resp, err := c.userService.Unfollow(ctx.Request.Context(), user, ctx.Param("username"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

func (c *UserController) ListFollowers(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	users, err := c.userService.ListFollowers(ctx.Request.Context(), user, ctx.Param("username"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}

func (c *UserController) ListFollowing(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	users, err := c.userService.ListFollowing(ctx.Request.Context(), user, ctx.Param("username"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}
