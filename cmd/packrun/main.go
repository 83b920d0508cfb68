// Command packrun runs the game world server: it loads map configuration,
// connects the retirement leaderboard, restores any prior snapshot, serves
// the HTTP API (and optionally static files), drives the tick loop, and
// saves a final snapshot on shutdown.
//
// Grounded on the original main.cpp's Args/ParseCommandLine/RunWorkers
// shape, adapted to Go idioms: github.com/spf13/pflag for the shorthand
// flags the CLI contract requires, github.com/spf13/viper to layer in the
// GAME_DB_URL environment variable, and golang.org/x/sync/errgroup to
// coordinate concurrent startup (HTTP listener + tick loop) and graceful
// shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/packrun/packrun/server/game"
	"github.com/packrun/packrun/server/httpapi"
	"github.com/packrun/packrun/server/leaderboard"
	"github.com/packrun/packrun/server/mapdata"
	"github.com/packrun/packrun/server/snapshot"
)

type args struct {
	tickPeriodMS     int
	configFile       string
	wwwRoot          string
	randomize        bool
	stateFile        string
	saveStatePeriod  int
	httpAddr         string
}

func parseArgs() (args, error) {
	var a args
	pflag.IntVarP(&a.tickPeriodMS, "tick-period", "t", -1, "tick period in ms; enables automatic ticking. If absent, enables manual /game/tick")
	pflag.StringVarP(&a.configFile, "config-file", "c", "", "path to game configuration JSON (required)")
	pflag.StringVarP(&a.wwwRoot, "www-root", "w", "", "path to static files root (required)")
	pflag.BoolVar(&a.randomize, "randomize-spawn-points", false, "spawn dogs at random points along random roads")
	pflag.StringVar(&a.stateFile, "state-file", "", "path to persist/restore game state")
	pflag.IntVar(&a.saveStatePeriod, "save-state-period", 0, "snapshot save period in ms; ignored if no state file")
	pflag.StringVar(&a.httpAddr, "http-addr", ":8080", "address to listen on")
	pflag.Parse()

	v := viper.New()
	v.SetEnvPrefix("PACKRUN")
	v.AutomaticEnv()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return a, fmt.Errorf("bind flags: %w", err)
	}

	if a.configFile == "" {
		return a, errors.New("--config-file,-c is required")
	}
	if a.wwwRoot == "" {
		return a, errors.New("--www-root,-w is required")
	}
	if _, err := os.Stat(a.configFile); err != nil {
		return a, fmt.Errorf("config-file: %w", err)
	}
	if fi, err := os.Stat(a.wwwRoot); err != nil || !fi.IsDir() {
		return a, fmt.Errorf("www-root must be a directory: %s", a.wwwRoot)
	}
	return a, nil
}

func run() error {
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := parseArgs()
	if err != nil {
		return err
	}

	viper.AutomaticEnv()
	dbURL := viper.GetString("GAME_DB_URL")
	if dbURL == "" {
		dbURL = os.Getenv("GAME_DB_URL")
	}
	if dbURL == "" {
		return errors.New("GAME_DB_URL environment variable is required")
	}

	loaded, err := mapdata.Load(a.configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board, err := leaderboard.Open(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}
	defer board.Close()
	if err := board.EnsureSchema(ctx); err != nil {
		return err
	}

	manualTick := a.tickPeriodMS <= 0

	var snapListener *snapshot.Listener
	if a.stateFile != "" {
		snapListener = &snapshot.Listener{
			Path:   a.stateFile,
			Period: time.Duration(a.saveStatePeriod) * time.Millisecond,
			Log:    log,
		}
		if err := snapshot.EnsureDir(a.stateFile); err != nil {
			return err
		}
	}

	mgr := game.New(game.Config{
		Maps:             loaded.Maps,
		MapOrder:         loaded.MapOrder,
		LootConfig:       loaded.LootConfig,
		Randomize:        a.randomize,
		RetirementPeriod: loaded.RetirementPeriod,
		Retirement:       board,
		Log:              log,
		Seed:             time.Now().UnixNano(),
		OnTick: func(dt time.Duration, snap func() game.Snapshot) {
			if snapListener != nil {
				snapListener.OnTick(dt, snap)
			}
		},
	})
	defer mgr.Close()

	if a.stateFile != "" {
		prior, err := snapshot.Load(a.stateFile)
		if err != nil {
			log.Fatal("snapshot load failed", zap.Error(err))
		}
		if err := mgr.Restore(prior); err != nil {
			log.Fatal("snapshot restore failed", zap.Error(err))
		}
	}

	handler := httpapi.New(&httpapi.Handler{
		Manager:    mgr,
		Log:        log,
		ManualTick: manualTick,
		StaticRoot: a.wwwRoot,
	})
	srv := &http.Server{Addr: a.httpAddr, Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", a.httpAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if !manualTick {
		ticker := game.Ticker{Period: time.Duration(a.tickPeriodMS) * time.Millisecond, Log: log}
		g.Go(func() error {
			ticker.Run(gctx, mgr)
			return nil
		})
	}

	<-gctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	if a.stateFile != "" {
		if err := snapshot.Save(a.stateFile, mgr.Snapshot()); err != nil {
			log.Error("final snapshot save failed", zap.Error(err))
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
