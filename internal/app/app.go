package app

import (
	"github.com/avelichko/planpoker/internal/config"
	http_auth "github.com/avelichko/planpoker/internal/delivery/http/auth"
	http_init "github.com/avelichko/planpoker/internal/delivery/http/init"
	http_access_middleware "github.com/avelichko/planpoker/internal/delivery/http/middleware/access"
	http_auth_middleware "github.com/avelichko/planpoker/internal/delivery/http/middleware/auth"
	http_room "github.com/avelichko/planpoker/internal/delivery/http/room"
	http_swagger "github.com/avelichko/planpoker/internal/delivery/http/swagger"
	ws_room "github.com/avelichko/planpoker/internal/delivery/ws/room"
	"github.com/avelichko/planpoker/internal/expiry"
	infra_redis_init "github.com/avelichko/planpoker/internal/infra/redis/init"
	infra_session_cache "github.com/avelichko/planpoker/internal/infra/redis/session"
	"github.com/avelichko/planpoker/internal/rtstore/memory"
	service_auth "github.com/avelichko/planpoker/internal/service/auth"
	usecase_session "github.com/avelichko/planpoker/internal/usecase/session"
)

func Go(cfg *config.Config) {
	redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)

	clock := expiry.SystemClock()
	scheduler := expiry.NewScheduler(clock)
	store := memory.New()

	sessions := usecase_session.New(store, scheduler,
		usecase_session.WithReactionTTL(cfg.Rooms.ReactionTTL),
		usecase_session.WithNudgeTTL(cfg.Rooms.NudgeTTL),
	)

	hub := ws_room.NewHub(sessions, clock,
		ws_room.WithPollInterval(cfg.Rooms.PollInterval),
		ws_room.WithReactionTTL(cfg.Rooms.ReactionTTL),
	)
	go hub.Run()

	sessionCache := infra_session_cache.New(redisConn, "session_cache")
	authService := service_auth.New(cfg.Auth.AllowedDomain, sessionCache, cfg.Auth.SessionTTL)
	authMiddleware := http_auth_middleware.New(authService)

	controllerPool := http_init.NewControllerPool()
	controllerPool.Use(http_access_middleware.ReadOnlyBadGatewayMiddleware(cfg.HTTP.Mode))
	controllerPool.Add(http_swagger.New())
	controllerPool.Add(http_auth.New(authService))
	controllerPool.Add(http_room.New(hub, authMiddleware))
	controllerPool.Add(ws_room.NewController(hub, sessions, authService))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}
