package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/christiangarcia0311/stream-server/internal/app/models/dto"
	"github.com/christiangarcia0311/stream-server/internal/app/services"
	"github.com/christiangarcia0311/stream-server/internal/middleware"
)

// CommunityController handles community related operations
type CommunityController struct {
	communityService services.CommunityService
}

// NewCommunityController creates a new CommunityController
func NewCommunityController(communityService services.CommunityService) *CommunityController {
	return &CommunityController{communityService: communityService}
}

// GetAllCommunities lists active communities
// @Summary Get all communities
// @Description Every active community, with the caller's membership when there is one.
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.CommunityResponse}
// @Router /communities [get]
func (c *CommunityController) GetAllCommunities(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	communities, err := c.communityService.ListCommunities(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(communities))
}

// GetMyCommunities lists the communities the caller belongs to.
func (c *CommunityController) GetMyCommunities(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	communities, err := c.communityService.ListMyCommunities(ctx.Request.Context(), user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(communities))
}

// GetCommunityByID handles retrieving a specific community by ID
// @Summary Get community by ID
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID"
// @Success 200 {object} dto.APIResponse{data=dto.CommunityResponse}
// @Failure 404 {object} dto.APIResponse "Community not found"
// @Router /communities/{id} [get]
func (c *CommunityController) GetCommunityByID(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "community")
	if !ok {
		return
	}
	community, err := c.communityService.GetCommunity(ctx.Request.Context(), user, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(community))
}

// CreateCommunity handles community creation
// @Summary Create a community
// @Description Staff only. The creator becomes the first admin.
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCommunityRequest true "Community"
// @Success 201 {object} dto.APIResponse{data=dto.CommunityResponse}
// @Failure 403 {object} dto.APIResponse "Not staff"
// @Failure 409 {object} dto.APIResponse "Name taken"
// @Router /communities [post]
func (c *CommunityController) CreateCommunity(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	var req dto.CreateCommunityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	community, err := c.communityService.CreateCommunity(ctx.Request.Context(), user, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(community, "Community created"))
}

// UpdateCommunity handles partial community updates (superusers only).
func (c *CommunityController) UpdateCommunity(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "community")
	if !ok {
		return
	}
	var req dto.UpdateCommunityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	community, err := c.communityService.UpdateCommunity(ctx.Request.Context(), user, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(community, "Community updated"))
}

// DeleteCommunity deactivates a community (superusers only).
func (c *CommunityController) DeleteCommunity(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "community")
	if !ok {
		return
	}
	if err := c.communityService.DeleteCommunity(ctx.Request.Context(), user, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Community deleted"))
}

// JoinCommunity adds the caller as a member
// @Summary Join a community
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID"
// @Success 201 {object} dto.APIResponse{data=dto.JoinResponse}
// @Failure 400 {object} dto.APIResponse "Already a member"
// @Failure 404 {object} dto.APIResponse "Community not found or inactive"
// @Router /communities/{id}/members [post]
func (c *CommunityController) JoinCommunity(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "community")
	if !ok {
		return
	}
	resp, err := c.communityService.Join(ctx.Request.Context(), user, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp, "Joined community"))
}

// LeaveCommunity removes the caller's membership
// @Summary Leave a community
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse "Not a member, or last admin"
// @Router /communities/{id}/members [delete]
func (c *CommunityController) LeaveCommunity(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "community")
	if !ok {
		return
	}
	if err := c.communityService.Leave(ctx.Request.Context(), user, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Left community"))
}

func (c *CommunityController) GetMembers(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "community")
	if !ok {
		return
	}
	members, err := c.communityService.ListMembers(ctx.Request.Context(), user, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(members))
}

// SetMemberRole changes a member's role
// @Summary Change a member's role
// @Description Community admins and superusers only.
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID"
// @Param membershipId path int true "Membership ID"
// @Param request body dto.SetRoleRequest true "New role"
// @Success 200 {object} dto.APIResponse{data=dto.MemberResponse}
// @Failure 400 {object} dto.APIResponse "Invalid role, or last admin"
// @Failure 403 {object} dto.APIResponse "Not a community admin"
// @Router /communities/{id}/members/{membershipId}/role [put]
func (c *CommunityController) SetMemberRole(ctx *gin.Context) {
	user, ok := actor(ctx)
	if !ok {
		return
	}
	communityID, ok := idParam(ctx, "id", "community")
	if !ok {
		return
	}
	membershipID, ok := idParam(ctx, "membershipId", "membership")
	if !ok {
		return
	}
	var req dto.SetRoleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	member, err := c.communityService.SetRole(ctx.Request.Context(), user, communityID, membershipID, req.Role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(member, "Role updated"))
}
