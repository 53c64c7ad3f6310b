package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"montagego/internal/api"
	"montagego/pkg/audio"
	"montagego/pkg/catalog"
	"montagego/pkg/config"
	"montagego/pkg/core"
	"montagego/pkg/db"
	"montagego/pkg/db/maintenance"
	"montagego/pkg/logging"
	"montagego/pkg/media"
	"montagego/pkg/model"
	"montagego/pkg/probe"
	"montagego/pkg/sequencer"
	"montagego/pkg/session"
	"montagego/pkg/store"
	"montagego/pkg/version"
	"montagego/pkg/video"
	"montagego/pkg/watcher"
)

const (
	defaultConfigPath = "configs/montage.yaml"
	minFreeDisk       = 64 << 20
	pruneInterval     = time.Hour
)

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the YAML config file")
)

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("MontageGo Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Startup Probes
	if err := runProbes(ctx, startupProbes(appCfg)); err != nil {
		return err
	}

	if err := maintenance.Run(ctx, st, dbConn, appCfg.Catalog.Sequences, historyRetention(appCfg)); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	cat, narr, err := loadCatalogs(appCfg)
	if err != nil {
		return err
	}

	// Missing media is skipped at load time; surface it once up front
	if err := runProbes(ctx, []probe.Probe{{
		Name:  "Media Files",
		Check: probe.Func(func() error { return catalog.MissingFiles(cat, narr) }),
	}}); err != nil {
		return err
	}

	var history store.HistoryStore
	if appCfg.History.Enabled {
		history = st
	}
	sessionMgr := session.NewManager(history, st)

	videos, renderer := initVideo(appCfg)
	opts := sequencer.OptionsFromConfig(appCfg)
	opts.Recorder = sessionMgr
	opts.Logger = slog.Default()

	seq, err := sequencer.New(cat, narr, videos, initAudio(appCfg), renderer, opts)
	if err != nil {
		return fmt.Errorf("failed to create sequencer: %w", err)
	}
	startSequence(ctx, appCfg, st, seq, len(cat.Sequences))

	// Scheduler
	sched := core.NewScheduler(appCfg, seq)
	monitor := core.NewResourceMonitor()
	if d := appCfg.Stats.Interval.D(); d > 0 {
		sched.AddJob(core.NewStatsJob(monitor, d))
	}
	if r := historyRetention(appCfg); r > 0 {
		sched.AddJob(core.NewPruneJob(dbConn, r, pruneInterval))
	}
	if d := appCfg.Catalog.WatchInterval.D(); d > 0 {
		w := watcher.NewService(appCfg.Catalog.MediaRoot, appCfg.Catalog.Sequences)
		sched.AddJob(core.NewWatchJob(w, d, nil))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return sessionMgr.Run(gctx)
	})
	if appCfg.Server.Enabled {
		srv := api.NewServer(appCfg.Server.Address,
			api.NewPlaybackHandler(seq),
			api.NewHistoryHandler(sessionMgr, history),
			api.NewStatsHandler(monitor, sched, sessionMgr),
			api.NewEventsHandler(sessionMgr),
			cancel,
		)
		g.Go(func() error {
			return runServerLifecycle(gctx, srv)
		})
	}

	err = g.Wait()

	// The scheduler has stopped; release media from this goroutine
	seq.Close()
	slog.Info("MontageGo Stopped", "frames", sched.Frames(), "run_id", sessionMgr.RunID())
	return err
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func historyRetention(cfg *config.Config) time.Duration {
	if !cfg.History.Enabled {
		return 0
	}
	return cfg.History.Retention.D()
}

func startupProbes(cfg *config.Config) []probe.Probe {
	probes := []probe.Probe{
		{
			Name:     "Sequence Catalog",
			Check:    probe.Readable(cfg.Catalog.Sequences),
			Critical: true,
		},
		{
			Name:  "Narration Catalog",
			Check: probe.Readable(cfg.Catalog.Narration),
		},
	}
	if cfg.Video.Backend == config.BackendFFplay {
		probes = append(probes,
			probe.Probe{
				Name:     "ffplay",
				Check:    probe.Executable(cfg.Video.FFplayPath),
				Critical: true,
			},
			probe.Probe{
				Name:  "ffprobe",
				Check: probe.Executable(cfg.Video.FFprobePath), // Without it clips use the display size
			},
		)
	}
	if cfg.DB.Path != ":memory:" {
		probes = append(probes, probe.Probe{
			Name:  "Disk Space",
			Check: probe.FreeSpace(cfg.DB.Path, minFreeDisk),
		})
	}
	return probes
}

func runProbes(ctx context.Context, probes []probe.Probe) error {
	results := probe.Run(ctx, probes)
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}
	return nil
}

func loadCatalogs(cfg *config.Config) (*model.Catalog, *model.NarrationCatalog, error) {
	cat, err := catalog.LoadSequences(cfg.Catalog.Sequences)
	if err != nil {
		return nil, nil, err
	}
	cat = catalog.ResolveSequences(cat, cfg.Catalog.MediaRoot)
	for _, issue := range catalog.Validate(cat) {
		slog.Warn("Catalog issue", "issue", issue.String())
	}

	narr, err := catalog.LoadNarration(cfg.Catalog.Narration)
	if err != nil {
		// Narration is optional; playback runs without it
		slog.Warn("Narration catalog unavailable", "error", err)
		narr = &model.NarrationCatalog{}
	}
	narr = catalog.ResolveNarration(narr, cfg.Catalog.MediaRoot)

	slog.Info("Catalogs loaded", "sequences", len(cat.Sequences), "narration_clips", len(narr.Clips))
	return cat, narr, nil
}

func initVideo(cfg *config.Config) (media.VideoLoader, media.Renderer) {
	if cfg.Video.Backend == config.BackendFFplay {
		return video.NewLoader(&cfg.Video), video.NewWindow()
	}
	slog.Info("Video backend: headless")
	return video.NewHeadlessLoader(), video.NewRecorder()
}

func initAudio(cfg *config.Config) media.AudioLoader {
	if cfg.Audio.Backend == config.BackendSpeaker {
		return audio.NewLoader(&cfg.Audio)
	}
	slog.Info("Audio backend: headless")
	return audio.NewHeadlessLoader()
}

// startSequence picks the first sequence: the stored one when resuming, a random one otherwise.
func startSequence(ctx context.Context, cfg *config.Config, st store.StateStore, seq *sequencer.Sequencer, n int) {
	if cfg.Catalog.Resume {
		if idx, ok := session.ResumeIndex(ctx, st, n); ok {
			if err := seq.SelectSequence(idx); err == nil {
				return
			}
		}
	}
	seq.SelectRandom()
}

func runServerLifecycle(ctx context.Context, srv *http.Server) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	select {
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
