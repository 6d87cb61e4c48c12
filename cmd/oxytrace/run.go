package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine"
	"github.com/Carmen-Shannon/oxy-trace/engine/config"
	"github.com/Carmen-Shannon/oxy-trace/engine/material"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
	"github.com/spf13/cobra"
)

type runOptions struct {
	duration time.Duration
	grid     int
	window   bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the demo scene through the sync loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("window") {
				cfg.Window.Enabled = opts.window
			}
			return run(cmd.Context(), cfg, opts)
		},
	}
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 0, "stop after this long (0 runs until interrupted)")
	cmd.Flags().IntVarP(&opts.grid, "grid", "g", 8, "instance grid edge length")
	cmd.Flags().BoolVarP(&opts.window, "window", "w", false, "show the progress window")
	return cmd
}

func run(ctx context.Context, cfg config.Config, opts *runOptions) error {
	log := common.Logger()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	table, err := loadTable(cfg.Materials.Path)
	if err != nil {
		return err
	}

	backend, err := cfg.BackendType()
	if err != nil {
		return err
	}
	r := renderer.NewRenderer(backend,
		renderer.WithLabel(common.Coalesce(cfg.Renderer.Label, "oxy-trace")),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceSoftware),
	)
	defer r.Release()

	reg := scene.NewSceneRegistry(r,
		scene.WithName("demo"),
		scene.WithMaterialTable(table),
		scene.WithSchedulerOptions(cfg.SchedulerOptions()...),
	)
	defer reg.Close()

	engineOpts := []engine.EngineBuilderOption{
		engine.WithTickRate(cfg.Engine.TickRate),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithProfilerInterval(time.Duration(cfg.Engine.ProfileInterval)),
		engine.WithTitle(common.Coalesce(cfg.Window.Title, "oxy-trace")),
	}
	if cfg.Materials.Watch && fileExists(cfg.Materials.Path) {
		w, err := material.NewWatcher(cfg.Materials.Path, table, material.WithReloadCallback(func(rules []material.BindingRule) {
			log.Info("material table reloaded", "path", cfg.Materials.Path, "rules", len(rules))
		}))
		if err != nil {
			log.Warn("material watcher disabled", "path", cfg.Materials.Path, "err", err)
		} else {
			engineOpts = append(engineOpts, engine.WithMaterialWatcher(w))
		}
	}
	if cfg.Window.Enabled {
		engineOpts = append(engineOpts, engine.WithWindow(window.NewWindow(
			window.WithTitle(common.Coalesce(cfg.Window.Title, "oxy-trace")),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
		)))
	}
	eng := engine.NewEngine(reg, engineOpts...)

	d, err := newDemo(reg, table, opts.grid)
	if err != nil {
		return err
	}
	eng.SetTickCallback(d.tick)

	err = eng.Run(ctx)
	stats := r.Stats()
	log.Info("run finished",
		"frames", eng.Frames(), "group_uploads", stats.GroupUploads, "material_uploads", stats.MaterialUploads,
		"tlas_uploads", stats.TopLevelUploads, "bytes", stats.BytesWritten)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadTable reads the mapping table, falling back to the default rules when the
// file does not exist.
func loadTable(path string) (material.Table, error) {
	if path == "" || !fileExists(path) {
		common.Logger().Info("material table not found, using defaults", "path", path)
		return material.NewTable(material.DefaultRules()...), nil
	}
	return material.LoadTable(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
