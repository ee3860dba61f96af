package http_auth_middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	http_common "github.com/avelichko/planpoker/internal/delivery/http/common"
	service_auth "github.com/avelichko/planpoker/internal/service/auth"
)

// IdentityKey is where AuthRequired stores the resolved identity in the
// request context.
const IdentityKey = "identity"

type Middleware struct {
	auth   *service_auth.Service
	logger *slog.Logger
}

func New(auth *service_auth.Service) *Middleware {
	return &Middleware{
		auth:   auth,
		logger: slog.Default(),
	}
}

func (m *Middleware) AuthRequired() gin.HandlerFunc {
	const header = "X-user-token"
	return func(ctx *gin.Context) {
		token := ctx.GetHeader(header)
		if token == "" {
			ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
				Message: "no " + header + " header",
			})
			ctx.Abort()
			return
		}

		identity, err := m.auth.Resolve(token)
		if err != nil {
			m.logger.Warn("token rejected", slog.String("error", err.Error()))
			ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
				Message: "invalid token",
			})
			ctx.Abort()
			return
		}

		ctx.Set(IdentityKey, identity)
		ctx.Next()
	}
}
