// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"github.com/google/wire"
	"tutorhub/config"
	"tutorhub/infras/jwt"
	"tutorhub/infras/kafka"
	"tutorhub/infras/otel"
	"tutorhub/infras/postgres"
	"tutorhub/infras/redis"
	"tutorhub/internal/domains/booking/repository"
	"tutorhub/internal/domains/booking/service"
	repository2 "tutorhub/internal/domains/pricing/repository"
	"tutorhub/internal/domains/provider/gateway"
	repository4 "tutorhub/internal/domains/provider/repository"
	service3 "tutorhub/internal/domains/provider/service"
	repository3 "tutorhub/internal/domains/session/repository"
	service2 "tutorhub/internal/domains/session/service"
	service4 "tutorhub/internal/domains/settlement/service"
	"tutorhub/internal/handlers/booking"
	"tutorhub/internal/handlers/ops"
	"tutorhub/internal/handlers/provider"
	"tutorhub/internal/handlers/session"
	"tutorhub/internal/integrations/community"
	"tutorhub/internal/integrations/notifier"
	"tutorhub/internal/integrations/payment"
	"tutorhub/internal/integrations/scheduling"
	"tutorhub/jobs"
	"tutorhub/permissions"
	"tutorhub/shared/cache"
	"tutorhub/shared/cipher"
	"tutorhub/transport/http"
	"tutorhub/transport/http/middleware"
	"tutorhub/transport/http/router"
)

// Injectors from wire.go:

func InitializeService() *http.HTTP {
	configConfig := config.Get()
	connection := postgres.New(configConfig)
	otelOtel := otel.New(configConfig)
	repositoryBooking := repository.New(connection, otelOtel)
	rate := repository2.New(connection, otelOtel)
	client := redis.New(configConfig)
	slotReserver := scheduling.NewSlotReserver(client, otelOtel)
	kafkaClient := kafka.New(configConfig)
	notifierNotifier := notifier.New(configConfig, kafkaClient, otelOtel)
	redisCache := cache.NewRedisCache(client, otelOtel)
	serviceBooking := service.New(repositoryBooking, rate, slotReserver, notifierNotifier, configConfig, redisCache, otelOtel)
	handler := booking.New(serviceBooking, otelOtel)
	repositorySession := repository3.New(connection, otelOtel)
	repositoryConnection := repository4.New(connection, otelOtel)
	cipherCipher := cipher.New(configConfig)
	gateway := provideGateway(repositoryConnection, cipherCipher, configConfig, otelOtel)
	pinner := community.NewPinner(client, otelOtel)
	serviceSession := service2.New(repositorySession, repositoryBooking, gateway, pinner, notifierNotifier, configConfig, redisCache, otelOtel)
	sessionHandler := session.New(serviceSession, otelOtel)
	serviceProvider := service3.New(repositoryConnection, repositorySession, gateway, cipherCipher, configConfig, otelOtel)
	providerHandler := provider.New(serviceProvider, otelOtel)
	capturer := payment.NewCapturer(configConfig, otelOtel)
	settlement := service4.New(repositorySession, capturer, notifierNotifier, configConfig, otelOtel)
	opsHandler := ops.New(serviceSession, settlement, otelOtel)
	domainHandlers := router.DomainHandlers{
		Booking:  handler,
		Session:  sessionHandler,
		Provider: providerHandler,
		Ops:      opsHandler,
	}
	routerRouter := router.New(domainHandlers)
	appMiddleware := middleware.NewAppMiddleware(otelOtel, configConfig, redisCache)
	jwtJWT := jwt.New(configConfig)
	permissionData := permissions.Get()
	authRole := middleware.NewAuthRoleMiddleware(jwtJWT, otelOtel, permissionData, configConfig)
	httpHTTP := http.New(configConfig, routerRouter, appMiddleware, authRole)
	return httpHTTP
}

// InitializeScheduler builds only what the periodic sweeps need; the HTTP
// surface and its middlewares stay out of the job runner's graph.
func InitializeScheduler() *jobs.Scheduler {
	configConfig := config.Get()
	connection := postgres.New(configConfig)
	otelOtel := otel.New(configConfig)
	repositorySession := repository3.New(connection, otelOtel)
	repositoryBooking := repository.New(connection, otelOtel)
	repositoryConnection := repository4.New(connection, otelOtel)
	cipherCipher := cipher.New(configConfig)
	gateway := provideGateway(repositoryConnection, cipherCipher, configConfig, otelOtel)
	client := redis.New(configConfig)
	pinner := community.NewPinner(client, otelOtel)
	kafkaClient := kafka.New(configConfig)
	notifierNotifier := notifier.New(configConfig, kafkaClient, otelOtel)
	redisCache := cache.NewRedisCache(client, otelOtel)
	serviceSession := service2.New(repositorySession, repositoryBooking, gateway, pinner, notifierNotifier, configConfig, redisCache, otelOtel)
	capturer := payment.NewCapturer(configConfig, otelOtel)
	settlement := service4.New(repositorySession, capturer, notifierNotifier, configConfig, otelOtel)
	scheduler := jobs.NewScheduler(serviceSession, settlement, configConfig)
	return scheduler
}

// wire.go:

var configurations = wire.NewSet(config.Get, permissions.Get)

var infrastructures = wire.NewSet(postgres.New, otel.New, redis.New, kafka.New, jwt.New)

var middlewares = wire.NewSet(middleware.NewAppMiddleware, middleware.NewAuthRoleMiddleware)

var sharedHelpers = wire.NewSet(cache.NewRedisCache, cipher.New)

var integrations = wire.NewSet(notifier.New, payment.NewCapturer, scheduling.NewSlotReserver, community.NewPinner)

var bookingDomain = wire.NewSet(repository2.New, repository.New, service.New)

var sessionDomain = wire.NewSet(repository3.New, service2.New)

var providerDomain = wire.NewSet(repository4.New, provideGateway, service3.New)

var settlementDomain = wire.NewSet(service4.New)

var domains = wire.NewSet(
	bookingDomain,
	sessionDomain,
	providerDomain,
	settlementDomain,
)

var routing = wire.NewSet(wire.Struct(new(router.DomainHandlers), "*"), booking.New, session.New, provider.New, ops.New, router.New)

func provideGateway(connRepo repository4.Connection, ciph cipher.Cipher, cfg *config.Config, ot otel.Otel) gateway.Gateway {
	return gateway.New(connRepo, ciph, ot, gateway.NewZoom(cfg), gateway.NewMeet(cfg))
}
