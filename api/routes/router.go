package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mythra-labs/mythra-backend/api/controllers"
	"github.com/mythra-labs/mythra-backend/api/middleware"
	"github.com/mythra-labs/mythra-backend/internal/dao"
	"github.com/mythra-labs/mythra-backend/internal/distributions"
	"github.com/mythra-labs/mythra-backend/internal/events"
	"github.com/mythra-labs/mythra-backend/internal/investments"
	"github.com/mythra-labs/mythra-backend/internal/tickets"
	"github.com/mythra-labs/mythra-backend/pkg/config"
	"github.com/mythra-labs/mythra-backend/pkg/enums"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
	"github.com/mythra-labs/mythra-backend/pkg/metrics"
)

// RedisStore is the slice of the redis client the HTTP layer needs.
type RedisStore interface {
	middleware.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient RedisStore,
	metricsHandler http.Handler,
	httpMetrics *metrics.HTTPMetrics,
	eventsService events.Service,
	daoService dao.Service,
	investmentsService investments.Service,
	ticketsService tickets.Service,
	distributionsService distributions.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg, httpMetrics),
	)

	idempotent := middleware.Idempotency(redisClient, cfg.Redis.IdempotencyTTL, logg)
	votePolicy := middleware.NewRateLimitPolicy("votes", cfg.Redis.VoteRateLimit, cfg.Redis.VoteRateWindow)

	organizers := middleware.RequireRole(logg, enums.ActorRoleOrganizer, enums.ActorRoleAdmin)
	investors := middleware.RequireRole(logg, enums.ActorRoleInvestor)
	doorStaff := middleware.RequireRole(logg, enums.ActorRoleStaff, enums.ActorRoleAdmin)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))

			r.Get("/events", controllers.EventList(eventsService, logg))
			r.Get("/events/{eventId}", controllers.EventGet(eventsService, logg))
			r.Get("/events/{eventId}/questions", controllers.QuestionList(daoService, logg))
			r.Get("/events/{eventId}/voting-status", controllers.VotingStatus(daoService, logg))
			r.Get("/events/{eventId}/investments", controllers.InvestmentList(investmentsService, logg))
			r.Get("/events/{eventId}/distribution", controllers.DistributionGet(distributionsService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.With(organizers).Post("/events", controllers.EventCreate(eventsService, logg))
			r.With(organizers).Patch("/events/{eventId}", controllers.EventUpdate(eventsService, logg))
			r.With(organizers).Post("/events/{eventId}/transitions", controllers.EventTransition(eventsService, logg))

			r.With(organizers).Post("/events/{eventId}/questions", controllers.QuestionCreate(daoService, logg))
			r.With(organizers).Patch("/events/{eventId}/questions/{questionId}", controllers.QuestionUpdate(daoService, logg))
			r.With(organizers).Delete("/events/{eventId}/questions/{questionId}", controllers.QuestionDelete(daoService, logg))
			r.With(investors, middleware.RateLimit(votePolicy, redisClient, logg)).
				Post("/events/{eventId}/votes", controllers.VoteCast(daoService, logg))

			r.With(investors, idempotent).Post("/events/{eventId}/investments", controllers.InvestmentCreate(investmentsService, logg))

			r.With(idempotent).Post("/events/{eventId}/tickets", controllers.TicketPurchase(ticketsService, logg))
			r.Get("/events/{eventId}/tickets", controllers.TicketListMine(ticketsService, logg))
			r.With(doorStaff).Post("/tickets/{ticketId}/check-in", controllers.TicketCheckIn(ticketsService, logg))

			r.With(organizers).Post("/events/{eventId}/distribution", controllers.DistributionSubmit(distributionsService, logg))
			r.With(organizers, idempotent).Post("/events/{eventId}/distribution/execute", controllers.DistributionExecute(distributionsService, logg))
		})
	})

	return r
}
