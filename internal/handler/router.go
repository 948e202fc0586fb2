package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/middleware"
	"reviewhub/internal/repository"
	"reviewhub/internal/service"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth     *AuthHandler
	User     *UserHandler
	Category *CategoryHandler
	Genre    *GenreHandler
	Title    *TitleHandler
	Review   *ReviewHandler
	Comment  *CommentHandler
}

// NewRouter builds the gin engine with the full /api/v1 route table.
func NewRouter(h Handlers, authService service.AuthService, userRepo repository.UserRepository, signupRatePerMinute int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.Authenticate(authService, userRepo))

	h.Auth.RegisterRoutes(api, middleware.RateLimitPerIP(signupRatePerMinute))
	h.User.RegisterRoutes(api)
	h.Category.RegisterRoutes(api)
	h.Genre.RegisterRoutes(api)
	h.Title.RegisterRoutes(api)
	h.Review.RegisterRoutes(api)
	h.Comment.RegisterRoutes(api)

	return r
}
