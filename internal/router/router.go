// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/config"
	"github.com/tanjiaxian99/nusfitness-api/internal/handler"
	"github.com/tanjiaxian99/nusfitness-api/internal/metrics"
	"github.com/tanjiaxian99/nusfitness-api/internal/middleware"
)

// Handlers groups every HTTP handler the server exposes.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Booking  *handler.BookingHandler
	Credits  *handler.CreditHandler
	Telegram *handler.TelegramHandler
	Traffic  *handler.TrafficHandler
}

// Deps are the shared collaborators of the middleware chain.  Redis may
// be nil, in which case rate limiting and response caching are skipped.
type Deps struct {
	Config   config.Config
	Resolver middleware.Resolver
	Redis    *redis.Client
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
	Log      zerolog.Logger
}

// New builds the echo instance with the global middleware chain and every
// route registered.
func New(h Handlers, d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Validator = handler.Validator{}

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOriginFunc:  func(string) (bool, error) { return true, nil },
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestLog(d.Log))
	e.Use(middleware.Metrics(d.Metrics))
	e.Use(middleware.ResolveIdentity(d.Resolver, d.Config.Auth.CookieName))

	RegisterRoutes(e, h.Health, d)
	RegisterAuth(e, h.Auth)
	RegisterBooking(e, h.Booking, h.Credits)
	RegisterTraffic(e, h.Traffic, d)
	RegisterTelegram(e, h.Telegram, h.Traffic, d)
	return e
}

// RegisterRoutes registers the operational endpoints.
func RegisterRoutes(e *echo.Echo, hh *handler.HealthHandler, d Deps) {
	e.GET("/healthz", hh.Health)
	if d.Config.Metrics.Enabled && d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
}

func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	e.POST("/register", a.Register)
	e.POST("/login", a.Login)
	e.GET("/logout", a.Logout)
	e.GET("/isLoggedIn", a.IsLoggedIn)
}

// RegisterBooking registers the routes that act for an identity.  The
// identity check lives in the handlers so that each answers with its own
// body; /slots is public.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, cr *handler.CreditHandler) {
	e.POST("/book", b.Book)
	e.POST("/cancel", b.Cancel)
	e.POST("/slots", b.Slots)
	e.POST("/bookedSlots", b.BookedSlots)
	e.POST("/creditsLeft", cr.CreditsLeft)
	e.POST("/updateCredits", cr.UpdateCredits)
}

// RegisterTraffic registers the traffic reads.  They are rate limited and
// cached because a miss may reach the portal.
func RegisterTraffic(e *echo.Echo, t *handler.TrafficHandler, d Deps) {
	limit := middleware.NewTokenBucket(d.Config.RateLimit, d.Redis, d.Log)
	cache := middleware.NewRedisCache(d.Config.Cache, d.Redis)
	e.POST("/traffic", t.Historical, limit, cache)
	e.GET("/currentTraffic", t.Current, limit, cache)
}

func RegisterTelegram(e *echo.Echo, tg *handler.TelegramHandler, t *handler.TrafficHandler, d Deps) {
	g := e.Group("/telegram")
	g.POST("/login", tg.Login)
	g.POST("/isLoggedIn", tg.IsLoggedIn)
	g.POST("/updateMenus", tg.UpdateMenus)
	g.POST("/getPreviousMenu", tg.GetPreviousMenu)
	g.GET("/currentTraffic", t.Current,
		middleware.NewTokenBucket(d.Config.RateLimit, d.Redis, d.Log),
		middleware.NewRedisCache(d.Config.Cache, d.Redis))
}
