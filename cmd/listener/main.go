package main

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nikhil123421/theGlobalMixtape/internal/config"
	"github.com/nikhil123421/theGlobalMixtape/internal/player"
	"github.com/nikhil123421/theGlobalMixtape/internal/reconciler"
	"github.com/nikhil123421/theGlobalMixtape/internal/transport"
	pkglog "github.com/nikhil123421/theGlobalMixtape/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.LoadListener()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "mixtape-listener",
	})
	logger := pkglog.L()

	logger.Info().Str("server_url", cfg.ServerURL).Str("transport", cfg.Transport).
		Dur("drift_threshold", cfg.EffectiveDriftThreshold()).
		Msg("starting mixtape listener")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = pkglog.WithLogger(ctx, logger)

	// Launch the mpv backend
	mpv, err := player.NewMPV(player.MPVConfig{
		Path:       cfg.Player.MPVPath,
		SocketPath: cfg.Player.SocketPath,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start mpv")
	}
	defer mpv.Close()

	if err := mpv.SetVolume(ctx, cfg.Player.Volume); err != nil {
		logger.Warn().Err(err).Msg("failed to set volume")
	}

	// Select the snapshot transport
	var tr transport.Transport
	switch cfg.Transport {
	case "poll":
		tr = transport.NewPoll(cfg.ServerURL, cfg.PollInterval)
	case "push", "":
		tr = transport.NewPush(cfg.ServerURL)
	default:
		logger.Fatal().Str("transport", cfg.Transport).Msg("unknown transport")
	}

	rec := reconciler.New(mpv, tr, reconciler.Config{
		DriftThreshold: cfg.EffectiveDriftThreshold(),
		AutoStart:      cfg.AutoStart,
	})

	if cfg.AutoStart {
		rec.Start()
	} else {
		go waitForEnter(ctx, rec)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return tr.Run(gctx, rec.Apply)
	})

	// Forward mpv end-of-file events so the advance signal does not
	// wait for the next reconcile pass
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case trackID := <-mpv.Ended():
				if err := rec.NotifyEnded(gctx, trackID); err != nil {
					logger.Warn().Err(err).
						Str(pkglog.FieldTrackID, trackID).
						Msg("failed to handle track end")
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("listener error")
	}

	logger.Info().Msg("mixtape listener stopped")
}

// waitForEnter blocks on stdin and releases the reconciler. Browsers
// need a user gesture before audio may play and the listener keeps the
// same contract.
func waitForEnter(ctx context.Context, rec *reconciler.Reconciler) {
	logger := pkglog.Ctx(ctx)
	logger.Info().Msg("press enter to start playback")

	reader := bufio.NewReader(os.Stdin)
	if _, err := reader.ReadString('\n'); err != nil {
		logger.Warn().Err(err).Msg("stdin closed, starting playback anyway")
	}
	rec.Start()
	logger.Info().Msg("playback started")
}
