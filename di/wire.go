//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"kbox/config"
	"kbox/infras/jwt"
	"kbox/infras/kafka"
	"kbox/infras/otel"
	"kbox/infras/payment"
	"kbox/infras/postgres"
	"kbox/infras/redis"
	"kbox/internal/notifier"
	"kbox/internal/worker"
	"kbox/permissions"
	"kbox/shared/cache"
	"kbox/shared/slot"
	"kbox/shared/timezone"
	"kbox/transport/http"
	"kbox/transport/http/middleware"
	"kbox/transport/http/router"

	authService "kbox/internal/domains/auth/service"
	bookingRepository "kbox/internal/domains/booking/repository"
	bookingService "kbox/internal/domains/booking/service"
	paymentService "kbox/internal/domains/payment/service"
	promotionRepository "kbox/internal/domains/promotion/repository"
	promotionService "kbox/internal/domains/promotion/service"
	roomRepository "kbox/internal/domains/room/repository"
	roomService "kbox/internal/domains/room/service"
	userRepository "kbox/internal/domains/user/repository"
	userService "kbox/internal/domains/user/service"

	authHandler "kbox/internal/handlers/auth"
	bookingHandler "kbox/internal/handlers/booking"
	paymentHandler "kbox/internal/handlers/payment"
	promotionHandler "kbox/internal/handlers/promotion"
	roomHandler "kbox/internal/handlers/room"
	userHandler "kbox/internal/handlers/user"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	payment.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	timezone.New,
	slot.NewCatalog,
	notifier.NewKafka,
)

var authDomain = wire.NewSet(
	userRepository.New,
	authService.New,
)

var userDomain = wire.NewSet(
	userService.New,
)

var roomDomain = wire.NewSet(
	roomRepository.New,
	roomService.New,
)

var promotionDomain = wire.NewSet(
	promotionRepository.New,
	promotionService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var paymentDomain = wire.NewSet(
	paymentService.New,
)

var domains = wire.NewSet(
	authDomain,
	userDomain,
	roomDomain,
	promotionDomain,
	bookingDomain,
	paymentDomain,
)

var workers = wire.NewSet(
	worker.NewReaper,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	roomHandler.New,
	promotionHandler.New,
	bookingHandler.New,
	paymentHandler.New,
	router.New,
)

func InitializeApp() *App {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		workers,
		routing,
		http.New,
		wire.Struct(new(App), "*"),
	)

	return &App{}
}
