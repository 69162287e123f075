package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HarshSoni1801/NullByte/internal/api"
	"github.com/HarshSoni1801/NullByte/internal/app/service"
	"github.com/HarshSoni1801/NullByte/internal/common/security"
	"github.com/HarshSoni1801/NullByte/internal/domain/repository"
	"github.com/HarshSoni1801/NullByte/internal/judge"
	"github.com/HarshSoni1801/NullByte/internal/platform/cache"
	"github.com/HarshSoni1801/NullByte/internal/platform/config"
	"github.com/HarshSoni1801/NullByte/internal/platform/database"
	"github.com/HarshSoni1801/NullByte/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	config.Load()

	if err := logger.Init(config.AppConfig.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	security.InitJWT()

	database.Connect()
	defer database.Close()

	cache.ConnectRedis()
	defer cache.CloseRedis()

	userRepo := repository.NewPgUserRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)

	judgeClient := judge.NewClient(
		config.AppConfig.Judge0URL,
		config.AppConfig.Judge0APIKey,
		config.AppConfig.Judge0APIHost,
	)
	submitPolicy := judge.Policy{
		PollInterval:      config.AppConfig.JudgePollInterval,
		MaxPollAttempts:   config.AppConfig.JudgeMaxPollAttempts,
		RateLimitCooldown: config.AppConfig.JudgeRateLimitWait,
		MaxRetries:        config.AppConfig.JudgeMaxRetries,
	}
	validationPolicy := judge.Policy{
		PollInterval:      config.AppConfig.ValidationPollInterval,
		MaxPollAttempts:   config.AppConfig.ValidationMaxPollAttempts,
		RateLimitCooldown: config.AppConfig.ValidationRateLimitWait,
		MaxRetries:        config.AppConfig.JudgeMaxRetries,
	}

	problemCache := cache.NewProblemCache(cache.RDB, config.AppConfig.ProblemCacheTTL)

	authService := service.NewAuthService(userRepo)
	validator := service.NewReferenceValidator(judgeClient, validationPolicy)
	problemService := service.NewProblemService(problemRepo, validator, problemCache, database.DB)
	submissionService := service.NewSubmissionService(
		submissionRepo, problemRepo, userRepo, judgeClient, submitPolicy, problemCache, database.DB)

	router := api.NewRouter(authService, problemService, submissionService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 6 * time.Minute, // submissions block on judge polling
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.L().Info("server starting", zap.String("port", config.AppConfig.APIPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L().Fatal("could not start server", zap.Error(err))
		}
	}()

	<-stop

	logger.L().Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal("server shutdown failed", zap.Error(err))
	}
	logger.L().Info("server stopped gracefully")
}
