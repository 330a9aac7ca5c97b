//go:build wireinject
// +build wireinject

package di

import (
	"tutorhub/config"
	"tutorhub/infras/jwt"
	"tutorhub/infras/kafka"
	"tutorhub/infras/otel"
	"tutorhub/infras/postgres"
	"tutorhub/infras/redis"
	"tutorhub/jobs"
	"tutorhub/permissions"
	"tutorhub/shared/cache"
	"tutorhub/shared/cipher"
	"tutorhub/transport/http"
	"tutorhub/transport/http/middleware"
	"tutorhub/transport/http/router"

	bookingRepository "tutorhub/internal/domains/booking/repository"
	bookingService "tutorhub/internal/domains/booking/service"
	pricingRepository "tutorhub/internal/domains/pricing/repository"
	providerGateway "tutorhub/internal/domains/provider/gateway"
	providerRepository "tutorhub/internal/domains/provider/repository"
	providerService "tutorhub/internal/domains/provider/service"
	sessionRepository "tutorhub/internal/domains/session/repository"
	sessionService "tutorhub/internal/domains/session/service"
	settlementService "tutorhub/internal/domains/settlement/service"

	bookingHandler "tutorhub/internal/handlers/booking"
	opsHandler "tutorhub/internal/handlers/ops"
	providerHandler "tutorhub/internal/handlers/provider"
	sessionHandler "tutorhub/internal/handlers/session"

	"tutorhub/internal/integrations/community"
	"tutorhub/internal/integrations/notifier"
	"tutorhub/internal/integrations/payment"
	"tutorhub/internal/integrations/scheduling"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	kafka.New,
	jwt.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	cipher.New,
)

var integrations = wire.NewSet(
	notifier.New,
	payment.NewCapturer,
	scheduling.NewSlotReserver,
	community.NewPinner,
)

var bookingDomain = wire.NewSet(
	pricingRepository.New,
	bookingRepository.New,
	bookingService.New,
)

var sessionDomain = wire.NewSet(
	sessionRepository.New,
	sessionService.New,
)

var providerDomain = wire.NewSet(
	providerRepository.New,
	provideGateway,
	providerService.New,
)

var settlementDomain = wire.NewSet(
	settlementService.New,
)

var domains = wire.NewSet(
	bookingDomain,
	sessionDomain,
	providerDomain,
	settlementDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	bookingHandler.New,
	sessionHandler.New,
	providerHandler.New,
	opsHandler.New,
	router.New,
)

func provideGateway(connRepo providerRepository.Connection, ciph cipher.Cipher, cfg *config.Config, ot otel.Otel) providerGateway.Gateway {
	return providerGateway.New(connRepo, ciph, ot, providerGateway.NewZoom(cfg), providerGateway.NewMeet(cfg))
}

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		integrations,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

// InitializeScheduler builds only what the periodic sweeps need; the HTTP
// surface and its middlewares stay out of the job runner's graph.
func InitializeScheduler() *jobs.Scheduler {
	wire.Build(
		config.Get,
		postgres.New,
		otel.New,
		redis.New,
		kafka.New,
		sharedHelpers,
		notifier.New,
		payment.NewCapturer,
		community.NewPinner,
		bookingRepository.New,
		sessionRepository.New,
		providerRepository.New,
		provideGateway,
		sessionService.New,
		settlementService.New,
		jobs.NewScheduler,
	)

	return &jobs.Scheduler{}
}
