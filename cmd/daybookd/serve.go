package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/daybook"
	"github.com/benjamonnguyen/daybook/agent"
	"github.com/benjamonnguyen/daybook/httpapi"
	"github.com/benjamonnguyen/daybook/intent"
	"github.com/benjamonnguyen/daybook/llm"
	"github.com/benjamonnguyen/daybook/memory"
	"github.com/benjamonnguyen/daybook/scheduler"
	"github.com/benjamonnguyen/daybook/sqlite"
	"github.com/benjamonnguyen/daybook/sweeper"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the task sweeper",
	Long: `Run the daybook HTTP API and the background sweeper that starts and
misses tasks as time passes.

Examples:
  daybookd serve
  daybookd serve --addr :8080 --config ./daybook.conf`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :$DAYBOOK_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daybook.LoadConfig(confPath)
	if err != nil {
		return err
	}

	logger, closer, err := Logger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := OpenDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck
	transactor, dbGetter := txStdLib.NewTransactor(db.Conn(), txStdLib.NestedTransactionsSavepoints)

	// scheduling
	taskRepo := sqlite.NewTaskRepo(dbGetter, logger)
	engine := scheduler.NewEngine(taskRepo, transactor, logger)
	sw := sweeper.New(taskRepo, logger, cfg.SweepInterval, cfg.SweepGrace)

	// chat
	strategies := []intent.Strategy{intent.NewKeywordStrategy()}
	if cfg.LLMAPIKey != "" {
		client, err := llm.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
		if err != nil {
			return err
		}
		strategies = append(strategies, intent.NewLLMStrategy(client, cfg.LLMTimeout, logger))
	} else {
		logger.Warn("no LLM API key configured; chat falls back to keyword matching", "key", daybook.KeyLLMAPIKey)
	}
	classifier := intent.NewClassifier(logger, strategies...)
	chat := agent.New(engine, classifier, memory.New(cfg.ConversationTTL), logger)

	// http
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	addr := serveAddr
	if addr == "" {
		addr = ":" + cfg.Port
	}
	srv := httpapi.NewServer(engine, chat, logger).HTTPServer(addr)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sw.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "db", cfg.DatabaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server stopped", "err", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("failed to shut down server", "err", shutdownErr)
	}
	wg.Wait()

	return err
}
