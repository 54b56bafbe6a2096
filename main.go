// Seega - the Seega engine served over HTTP
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/seega/internal/api"
	"github.com/hailam/seega/internal/config"
	"github.com/hailam/seega/internal/engine"
	"github.com/hailam/seega/internal/session"
	"github.com/hailam/seega/internal/storage"
)

const (
	gcInterval      = 10 * time.Minute
	shutdownTimeout = 5 * time.Second
)

var (
	configPath = flag.String("config", "", "path to a JSON config file")
	addr       = flag.String("addr", "", "listen address, overrides the config")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("loading config failed")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	logger := cfg.Logger(os.Stderr)
	log.Logger = logger

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	dbDir := ""
	if cfg.DataDir != "" {
		dbDir = filepath.Join(cfg.DataDir, "db")
	}
	store, err := storage.Open(storage.Options{Dir: dbDir, TableTTL: time.Duration(cfg.TableTTL)})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("closing database failed")
		}
	}()

	var persister session.Persister
	if cfg.PersistTables {
		persister = store
	}
	tables, err := session.NewStore(session.Options{
		TableBits:   cfg.TableBits,
		MaxSessions: cfg.MaxSessions,
		IdleTTL:     time.Duration(cfg.SessionIdleTTL),
	}, persister)
	if err != nil {
		return err
	}
	defer func() {
		if err := tables.Close(); err != nil {
			logger.Error().Err(err).Msg("saving tables failed")
		}
	}()

	eng := engine.NewEngine(tables, cfg.Limits())
	eng.SetTableBits(cfg.TableBits)
	eng.SetRandomize(cfg.Randomize)

	srv := api.NewServer(eng, tables, store, logger)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	tableBytes := uint64(engine.TTEntrySize) << cfg.TableBits
	logger.Info().
		Str("addr", cfg.Addr).
		Int("max_sessions", cfg.MaxSessions).
		Str("table_size", humanize.IBytes(tableBytes)).
		Str("session_memory", humanize.IBytes(tableBytes*uint64(cfg.MaxSessions))).
		Bool("persist_tables", cfg.PersistTables).
		Dur("move_time", time.Duration(cfg.MoveTime)).
		Msg("seega listening")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(gcInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := store.RunGC(); err != nil {
					logger.Warn().Err(err).Msg("value log GC failed")
				}
				st := tables.Stats()
				logger.Debug().
					Int("sessions", st.Sessions).
					Str("memory", humanize.IBytes(st.Bytes)).
					Msg("session tables")
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("graceful shutdown failed")
			return httpServer.Close()
		}
		return nil
	})

	return g.Wait()
}
