package http_auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	http_common "github.com/avelichko/planpoker/internal/delivery/http/common"
	service_auth "github.com/avelichko/planpoker/internal/service/auth"
)

type Controller struct {
	auth   *service_auth.Service
	logger *slog.Logger
}

func New(auth *service_auth.Service) *Controller {
	return &Controller{
		auth:   auth,
		logger: slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/auth/sessions")
	{
		sessions.POST("", c.login)
		sessions.GET("/me", c.me)
	}
}

type LoginRequestDTO struct {
	Name       string `json:"name"`
	Email      string `json:"email" binding:"required"`
	IdentityID string `json:"identity_id" binding:"required"`
	PhotoURL   string `json:"photo_url"`
}

type LoginResponseDTO struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// login exchanges sign-in claims for a participant token. Only emails
// on the configured domain get through.
func (c *Controller) login(ctx *gin.Context) {
	var req LoginRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "incorrect request",
		})
		return
	}

	token, err := c.auth.Login(service_auth.Identity{
		Name:       req.Name,
		Email:      req.Email,
		IdentityID: req.IdentityID,
		PhotoURL:   req.PhotoURL,
	})
	if err != nil {
		c.logger.Error("login failed", slog.String("error", err.Error()))
		switch {
		case errors.Is(err, service_auth.ErrDomainNotAllowed):
			ctx.JSON(http.StatusForbidden, http_common.ErrorResponse{
				Message: "email domain not allowed",
			})
		case errors.Is(err, service_auth.ErrInvalidIdentity):
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: "invalid identity claims",
			})
		default:
			ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
				Message: "internal error",
			})
		}
		return
	}

	identity, err := c.auth.Resolve(token)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusCreated, LoginResponseDTO{
		Token: token,
		Name:  identity.Name,
	})
}

type MeResponseDTO struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	IdentityID string `json:"identity_id"`
	PhotoURL   string `json:"photo_url,omitempty"`
}

func (c *Controller) me(ctx *gin.Context) {
	identity, err := c.auth.Resolve(ctx.GetHeader("X-user-token"))
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
			Message: "invalid token",
		})
		return
	}

	ctx.JSON(http.StatusOK, MeResponseDTO{
		Name:       identity.Name,
		Email:      identity.Email,
		IdentityID: identity.IdentityID,
		PhotoURL:   identity.PhotoURL,
	})
}
