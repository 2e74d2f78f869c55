package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/scribra-labs/scribra/internal/assistant"
	"github.com/scribra-labs/scribra/internal/auth"
	"github.com/scribra-labs/scribra/internal/blog"
	"github.com/scribra-labs/scribra/internal/config"
	"github.com/scribra-labs/scribra/internal/database"
	"github.com/scribra-labs/scribra/internal/editor"
	"github.com/scribra-labs/scribra/internal/logging"
	"github.com/scribra-labs/scribra/internal/server"
	"github.com/scribra-labs/scribra/internal/users"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scribra-api",
		Short: "Scribra blogging backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")
	cmd.PersistentFlags().String("gemini-model", defaults.GetString("gemini.model"), "Gemini model identifier")
	cmd.PersistentFlags().String("gemini-base-url", defaults.GetString("gemini.base_url"), "Gemini API base URL override")
	cmd.PersistentFlags().Int("autosave-interval-seconds", defaults.GetInt("autosave.interval_seconds"), "Editor autosave interval in seconds")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "gemini.model", "gemini-model")
	bindFlag(cmd, "gemini.base_url", "gemini-base-url")
	bindFlag(cmd, "autosave.interval_seconds", "autosave-interval-seconds")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tokenManager := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "scribra-auth",
		Audience:      "scribra-api",
		TokenTTL:      appConfig.TokenTTL,
	})

	usersService, err := users.NewService(users.ServiceConfig{
		Database: db,
		Clock:    time.Now,
	})
	if err != nil {
		return err
	}

	defaultIdentity := users.MockIdentity()
	blogStore, err := blog.NewStore(blog.StoreConfig{
		Database:      db,
		Clock:         time.Now,
		IDProvider:    blog.NewUUIDProvider(),
		Logger:        logger,
		DefaultAuthor: defaultIdentity.Author(),
	})
	if err != nil {
		return err
	}

	generator := assistant.NewGeminiClient(assistant.GeminiConfig{
		APIKey:  appConfig.GeminiAPIKey,
		Model:   appConfig.GeminiModel,
		BaseURL: appConfig.GeminiBaseURL,
	})

	autosaver, err := editor.NewAutosaver(editor.AutosaverConfig{
		Store:    blogStore,
		Interval: appConfig.AutosaveInterval,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenManager: tokenManager,
		Users:        usersService,
		Blog:         blogStore,
		Generator:    generator,
		Autosaver:    autosaver,
		Notifier:     server.NewNotificationDispatcher(),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go autosaver.Run(signalCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		if err := autosaver.Flush(context.Background()); err != nil {
			logger.Warn("final autosave failed", zap.Error(err))
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
