package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/apperror"
	"reviewhub/internal/dto"
	"reviewhub/internal/middleware"
	"reviewhub/internal/policy"
	"reviewhub/internal/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	// The static /users/me routes win over /users/:username in the router,
	// and "me" is additionally a reserved username at signup.
	me := router.Group("/users/me", middleware.RequireAuthenticated())
	{
		me.GET("", h.GetSelf)
		me.PUT("", h.UpdateSelf)
		me.PATCH("", h.UpdateSelf)
	}

	users := router.Group("/users", middleware.RequirePolicy(policy.ResourceUser))
	{
		users.GET("", h.List)
		users.POST("", h.Create)
		users.GET("/:username", h.Get)
		users.PATCH("/:username", h.Update)
		users.PUT("/:username", h.RejectFullUpdate)
		users.DELETE("/:username", h.Delete)
	}
}

func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)
	result, err := h.userService.List(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req dto.AdminCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateByUsername(c.Request.Context(), c.Param("username"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// RejectFullUpdate: the admin surface only supports partial updates.
func (h *UserHandler) RejectFullUpdate(c *gin.Context) {
	respondError(c, apperror.MethodNotAllowed(http.MethodPut))
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.DeleteByUsername(c.Request.Context(), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) GetSelf(c *gin.Context) {
	requester := middleware.RequesterFrom(c)
	user, err := h.userService.GetSelf(c.Request.Context(), requester.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateSelf serves both PUT and PATCH on the caller's own record. Role
// changes in the payload are ignored: clients cannot self-promote.
func (h *UserHandler) UpdateSelf(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requester := middleware.RequesterFrom(c)
	user, err := h.userService.UpdateSelf(c.Request.Context(), requester.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
