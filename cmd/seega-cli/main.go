package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/hailam/seega/internal/config"
	"github.com/hailam/seega/internal/engine"
	"github.com/hailam/seega/internal/protocol"
	"github.com/hailam/seega/internal/session"
)

var (
	configPath = flag.String("config", "", "path to a JSON config file")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config: ", err)
	}
	logger := cfg.Logger(os.Stderr)
	zlog.Logger = logger

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		logger.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	// Tables live for the session only.
	tables, err := session.NewStore(session.Options{
		TableBits:   cfg.TableBits,
		MaxSessions: 4,
		IdleTTL:     time.Duration(cfg.SessionIdleTTL),
	}, nil)
	if err != nil {
		log.Fatal("could not create table store: ", err)
	}
	defer tables.Close()

	eng := engine.NewEngine(tables, cfg.Limits())
	eng.SetTableBits(cfg.TableBits)
	eng.SetRandomize(cfg.Randomize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := protocol.New(eng, cfg.Limits(), os.Stdout, logger)
	if err := p.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("reading commands failed")
	}
}
