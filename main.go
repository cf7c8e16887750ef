package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"parking_reservation/internal/api"
	"parking_reservation/internal/api/handler"
	"parking_reservation/internal/api/middleware"
	"parking_reservation/internal/cache"
	"parking_reservation/internal/config"
	"parking_reservation/internal/repository/postgresql"
	"parking_reservation/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Setup Logger
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil {
		level = parsed
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("app", "parking_reservation").Logger()
	logger.Info().Msg("Cấu hình đã được tải")

	// 3. Setup Database Connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Không thể kết nối database")
	}
	defer db.Close()
	logger.Info().Msg("Đã kết nối database thành công")

	// 4. Redis cache (tùy chọn, nil khi REDIS_ADDR trống)
	locationCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL, &logger)
	if locationCache != nil {
		defer locationCache.Close()
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Đã kết nối Redis cache")
	}

	// 5. Initialize Repositories
	userRepo := postgresql.NewPgUserRepository(db)
	locationRepo := postgresql.NewPgLocationRepository(db)
	slotRepo := postgresql.NewPgParkingSlotRepository(db)
	reservationRepo := postgresql.NewPgReservationRepository(db)

	// 6. WebSocket manager cho event đặt chỗ real-time
	wsManager := handler.NewWebSocketManager(&logger)
	go wsManager.Start()

	// 7. Initialize Services
	mailer := service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, &logger)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours, &logger)
	parkingService := service.NewParkingService(locationRepo, slotRepo, locationCache, &logger)
	reservationService := service.NewReservationService(reservationRepo, slotRepo, userRepo, mailer, wsManager, &logger)

	// 8. Seed admin mặc định
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureDefaultAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("Không thể seed admin mặc định")
	}
	cancelSeed()

	// 9. Setup HTTP Router
	authMiddleware := middleware.NewAuthMiddleware(authService, &logger)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	router := api.SetupRouter(authService, parkingService, reservationService, authMiddleware, rateLimiter, wsManager, &logger)

	// 10. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.ServerPort).Msg("Server đang chạy")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Lỗi ListenAndServe()")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Đang tắt server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server buộc phải tắt")
	}

	logger.Info().Msg("Server đã tắt")
}
