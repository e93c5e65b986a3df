package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var errNotReady = errors.New("model resources are not loaded")

func ServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Loads the model resources and serves the web form and JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func PredictCommand() *cobra.Command {
	var input string

	var cmd = &cobra.Command{
		Use:   "predict --symptoms \"fever, headache, ...\"",
		Short: "Runs a single prediction and prints the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, pool, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			if pool != nil {
				defer pool.Close()
			}

			result, err := a.diagnose(input, log.Logger)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&input, "symptoms", "s", "", "comma separated list of symptoms")
	_ = cmd.MarkFlagRequired("symptoms")

	return cmd
}

func CheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Loads every configured resource and reports whether prediction is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, pool, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			if pool != nil {
				defer pool.Close()
			}

			if !a.engine.Ready() {
				return errNotReady
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d features, %d classes\n",
				a.res.NumFeatures(), a.res.Encoder().Len())
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:               "godiagnose",
		Short:             "Symptom based disease prediction with hospital recommendations",
		PersistentPreRunE: setupLogging,
		SilenceUsage:      true,
		RunE:              runServe,
	}

	root.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "Logging level: error, warn, info or debug")
	root.PersistentFlags().StringVarP(&logFormat, "log-format", "", "auto", "Logging format: auto, pretty or json")

	root.AddCommand(ServeCommand())
	root.AddCommand(PredictCommand())
	root.AddCommand(CheckCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration, opens the optional database pool and builds the app.
// The caller owns the returned pool.
func bootstrap(ctx context.Context) (*Config, *app, *pgxpool.Pool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config error: %w", err)
	}

	var pool *pgxpool.Pool
	if cfg.EnableDB {
		pool, err = connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
	}

	a, err := newApp(ctx, cfg, pool, log.Logger)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, nil, nil, err
	}
	return cfg, a, pool, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg, a, pool, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	var db HealthChecker
	if pool != nil {
		defer pool.Close()
		db = pool
	}

	if !a.engine.Ready() {
		log.Error().Msg("refusing to start: check the model, encoder, data dictionary and training data paths")
		return errNotReady
	}

	server := newServer(cfg, setupRouter(a, db))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("server listening")
	waitForShutdown(server)
	return nil
}

func newServer(cfg *Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func waitForShutdown(server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
