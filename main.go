package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"cropkit/cropper"
	"cropkit/geometry"
	"cropkit/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run() error {
	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("cropkit"),
		kong.Description("Interactive image cropper with a replayable action log."),
		kong.UsageOnError(),
	)
	if err := cliCtx.Run(&args.Globals); err != nil {
		return err
	}

	return nil
}

type Globals struct {
	Verbose  bool   `help:"Enable verbose logging" short:"v"`
	Settings string `help:"YAML file with cropper settings" type:"path"`
	LogFile  string `help:"Also write JSON logs to this file, rotated" type:"path"`
}

// setup loads the settings and configures the global logger. The returned
// context carries the logger.
func (g *Globals) setup() (context.Context, config.Config, func(), error) {
	cfg, err := config.Load(g.Settings)
	if err != nil {
		return nil, cfg, nil, err
	}
	if g.LogFile != "" {
		cfg.Logging.File = g.LogFile
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if g.Verbose {
		level = zerolog.DebugLevel
	}

	console := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})
	var out io.Writer = console
	closeLog := func() {}
	if cfg.Logging.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(console, file)
		closeLog = func() { _ = file.Close() }
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx = log.Logger.WithContext(ctx)
	return ctx, cfg, func() {
		cancel()
		closeLog()
	}, nil
}

func instanceFactory(cfg config.Config) func() *cropper.Instance {
	settings := cfg.Settings()
	return func() *cropper.Instance {
		opts := append(cfg.Options(), cropper.WithLogger(log.Logger.With().Str("component", "cropper").Logger()))
		return cropper.NewInstance(settings, opts...)
	}
}

type serveCmd struct {
	RootDir   string `arg:"" help:"Root directory to serve images from" type:"existingdir"`
	OutputDir string `help:"Directory crops are written to (default: <root>/output)" type:"path"`
	StaticDir string `help:"Serve a frontend from this directory" type:"existingdir"`
	Open      bool   `help:"Open the browser automatically when the server starts" default:"true" negatable:""`
	Once      bool   `help:"Exit after the first export" default:"false"`
}

func (cmd *serveCmd) Run(g *Globals) error {
	ctx, cfg, cleanup, err := g.setup()
	if err != nil {
		return err
	}
	defer cleanup()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outputDir := cmd.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(cmd.RootDir, "output")
	}
	executor := &JobExecutor{
		BaseDir:     cmd.RootDir,
		OutputDir:   outputDir,
		Exporter:    NewImagingExporter(),
		NewInstance: instanceFactory(cfg),
	}

	app := NewWebApp(Config{
		RootDir:   cmd.RootDir,
		StaticDir: cmd.StaticDir,
		Sessions:  NewSessionStore(executor.NewInstance),
		Executor:  executor,
		OnBeforeShutdown: func() {
			log.Ctx(ctx).Info().Msg("Shutting down web application...")
		},
		OnReady: func(addr string) {
			log.Ctx(ctx).Info().Msgf("Server started at %s", addr)
			if cmd.Open {
				if err := openBrowser(addr); err != nil {
					log.Ctx(ctx).Error().Err(err).Msg("Failed to open browser")
				}
			}
		},
		OnExport: func(result JobResult) {
			printJSONL([]JobResult{result})
			if cmd.Once {
				cancel()
			}
		},
	})

	if err := app.Run(ctx); err != nil {
		return err
	}

	return nil
}

type applyCmd struct {
	Jobs      string `arg:"" optional:"" help:"JSONL file of jobs, one per line (default: stdin)" type:"path"`
	RootDir   string `help:"Directory job filenames are relative to" default:"." type:"existingdir"`
	OutputDir string `help:"Directory crops are written to (default: <root>/output)" type:"path"`
	JSON      bool   `help:"Print the final states in JSON format without writing crops"`
}

func (cmd *applyCmd) Run(g *Globals) error {
	ctx, cfg, cleanup, err := g.setup()
	if err != nil {
		return err
	}
	defer cleanup()

	var r io.Reader = os.Stdin
	if cmd.Jobs != "" && cmd.Jobs != "-" {
		f, err := os.Open(cmd.Jobs)
		if err != nil {
			return fmt.Errorf("failed to open jobs file: %w", err)
		}
		defer f.Close()
		r = f
	}
	jobs, err := readJobs(r)
	if err != nil {
		return err
	}

	outputDir := cmd.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(cmd.RootDir, "output")
	}
	executor := JobExecutor{
		BaseDir:     cmd.RootDir,
		OutputDir:   outputDir,
		Exporter:    NewImagingExporter(),
		NewInstance: instanceFactory(cfg),
		DryRun:      cmd.JSON,
	}
	results, err := executor.Exec(ctx, jobs)
	printJSONL(results)
	return err
}

// readJobs parses one Job per non-empty line.
func readJobs(r io.Reader) ([]Job, error) {
	var jobs []Job
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(text), &job); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		jobs = append(jobs, job)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read jobs: %w", err)
	}
	return jobs, nil
}

type inspectCmd struct {
	File   string  `arg:"" help:"Image file" type:"existingfile"`
	Width  float64 `help:"Boundary width" default:"800"`
	Height float64 `help:"Boundary height" default:"600"`
}

type inspectResult struct {
	Filename    string                `json:"filename"`
	Image       ImageInfo             `json:"image"`
	State       cropper.State         `json:"state"`
	Render      *cropper.RenderParams `json:"render,omitempty"`
	Diagnostics []cropper.Diagnostic  `json:"diagnostics,omitempty"`
}

func (cmd *inspectCmd) Run(g *Globals) error {
	ctx, cfg, cleanup, err := g.setup()
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := readImageInfo(cmd.File)
	if err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Int("width", info.Width).Int("height", info.Height).Msg("image probed")

	instance := instanceFactory(cfg)()
	state := instance.Reset(geometry.Size{Width: cmd.Width, Height: cmd.Height}, info.Size(), geometry.Transforms{})
	result := inspectResult{
		Filename:    cmd.File,
		Image:       info,
		State:       state,
		Diagnostics: instance.Diagnostics(),
	}
	if params, ok := cropper.Render(state); ok {
		result.Render = &params
	}
	printJSONL([]inspectResult{result})
	return nil
}

type cliArgs struct {
	Globals

	Serve   serveCmd   `cmd:"" default:"withargs" help:"Serve the cropper API for a directory of images"`
	Apply   applyCmd   `cmd:"" help:"Replay action scripts and export the crops"`
	Inspect inspectCmd `cmd:"" help:"Print an image's size and its default crop"`
}

func printJSONL[T any](data []T) {
	enc := json.NewEncoder(os.Stdout)
	for _, item := range data {
		if err := enc.Encode(item); err != nil {
			log.Error().Err(err).Msg("Failed to encode item to JSON")
			continue
		}
	}
}
