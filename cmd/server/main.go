package main

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/tutor-session-booking/internal/config"
    "github.com/iliyamo/tutor-session-booking/internal/database"
    "github.com/iliyamo/tutor-session-booking/internal/handler"
    "github.com/iliyamo/tutor-session-booking/internal/logger"
    "github.com/iliyamo/tutor-session-booking/internal/middleware"
    "github.com/iliyamo/tutor-session-booking/internal/payment"
    "github.com/iliyamo/tutor-session-booking/internal/queue"
    "github.com/iliyamo/tutor-session-booking/internal/repository"
    "github.com/iliyamo/tutor-session-booking/internal/router"
)

func main() {
    // .env is optional; real deployments inject the environment directly
    _ = godotenv.Load()

    cfg := config.Load()

    zl, err := logger.New(cfg.Env)
    if err != nil {
        log.Fatalf("logger: %v", err)
    }
    defer zl.Sync()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        zl.Fatal("open database", zap.Error(err))
    }
    defer db.Close()

    // nil when Redis is unreachable; cache and rate limiting degrade to off
    rdb := config.NewRedisClient()

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    windows := repository.NewAvailabilityRepo(db)
    bookings := repository.NewBookingRepo(db)
    batches := repository.NewBatchRepo(db)
    sessions := repository.NewSessionRepo(db)

    pay := payment.NewClient(cfg.RazorpayKeyID, cfg.RazorpaySecret)

    authH := handler.NewAuthHandler(cfg, users, tokens)
    availH := handler.NewAvailabilityHandler(windows, zl)
    publicH := handler.NewPublicHandler(windows, bookings, batches, users, zl)
    bookingH := handler.NewBookingHandler(cfg, bookings, windows, sessions, users, zl)
    batchH := handler.NewBatchHandler(cfg, batches, zl)
    paymentH := handler.NewPaymentHandler(cfg, pay, batches, bookings, windows, sessions, zl)
    sessionH := handler.NewSessionHandler(cfg, sessions, bookings, batches, zl)

    var cacheMW, rlMW echo.MiddlewareFunc
    if rdb != nil {
        cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
        rlMW = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    }

    e := echo.New()
    e.HideBanner = true

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterPublic(e, publicH, cacheMW)
    router.RegisterShared(e, bookingH, sessionH, cfg.JWTSecret, rlMW)
    router.RegisterStudent(e, bookingH, batchH, paymentH, cfg.JWTSecret, rlMW)
    router.RegisterTutor(e, availH, bookingH, batchH, cfg.JWTSecret)

    go func() {
        if err := queue.StartNotificationConsumer(zl); err != nil {
            zl.Warn("notification consumer stopped", zap.Error(err))
        }
    }()

    addr := ":" + cfg.Port
    zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
    if err := e.Start(addr); err != nil {
        zl.Fatal("server stopped", zap.Error(err))
    }
}
