package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/openclaw/instantqr/api"
	"github.com/openclaw/instantqr/batch"
	"github.com/openclaw/instantqr/config"
	"github.com/openclaw/instantqr/generator"
	"github.com/openclaw/instantqr/qrgen"
	"github.com/openclaw/instantqr/store"
)

var version = "v0.1.0"

func main() {
	root := &cobra.Command{
		Use:          "instant-qr",
		Short:        "Generate QR codes as PNG, SVG and PDF",
		SilenceUsage: true,
	}

	var configPath string
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")

	// --- start command -------------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the QR generator web service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(configPath)
		},
	})

	// --- generate command ----------------------------------------------------
	var genFlags qrFlags
	var outDir string
	generateCmd := &cobra.Command{
		Use:   "generate [text]",
		Short: "Generate one QR code in every format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, configPath, &genFlags, args[0], outDir)
		},
	}
	genFlags.register(generateCmd)
	generateCmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	root.AddCommand(generateCmd)

	// --- batch command -------------------------------------------------------
	var batchFlags qrFlags
	var outFile string
	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Generate a ZIP of QR codes from a CSV or TXT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, configPath, &batchFlags, args[0], outFile)
		},
	}
	batchFlags.register(batchCmd)
	batchCmd.Flags().StringVarP(&outFile, "out", "o", "", "Output ZIP path (default: ./qr_batch_<timestamp>.zip)")
	root.AddCommand(batchCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("instant-qr %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger for the configured level.
func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
	return log
}

// runStart is the main service entrypoint that wires all components together.
func runStart(configPath string) error {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}

	// 2. Setup logger
	log := newLogger(cfg.LogLevel)
	log.Info("starting instant-qr", "version", version, "port", cfg.Port, "history", cfg.History.Backend)

	// 3. Open history
	history, err := store.New(cfg.History.Backend, cfg.DataDir, cfg.History.Max)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer history.Close()

	// 4. Create generator and batch runner
	gen := generator.NewService(history, log)
	runner := batch.NewRunner(gen, cfg.Batch.Workers, cfg.Batch.MaxValues, log)

	// 5. Start HTTP server
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(&api.Server{
			Generator:          gen,
			Batch:              runner,
			History:            history,
			Defaults:           cfg.Defaults.QR,
			DefaultLogoPercent: cfg.Defaults.LogoPercent,
			MaxUploadBytes:     cfg.MaxUploadBytes,
			RequestTimeout:     cfg.RequestTimeout.Duration,
			HistoryBackend:     cfg.History.Backend,
			Log:                log,
			Version:            version,
			StartTime:          time.Now(),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout.Duration + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("instant-qr is running", "url", fmt.Sprintf("http://localhost:%d/", cfg.Port))

	// 6. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	log.Info("goodbye")
	return nil
}

// runGenerate writes the PNG, SVG and PDF for text into outDir.
func runGenerate(cmd *cobra.Command, configPath string, flags *qrFlags, text, outDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.LogLevel)

	req, err := flags.request(cmd, cfg)
	if err != nil {
		return err
	}
	req.Text = text

	res, err := generator.NewService(nil, log).Render(cmd.Context(), req)
	if errors.Is(err, qrgen.ErrEmptyText) {
		return errors.New("please enter some text or a URL")
	}
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, f := range qrgen.Formats {
		path := filepath.Join(outDir, res.Filename(f))
		data := res.Artifacts.Get(f)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("%s (%s)\n", path, humanize.Bytes(uint64(len(data))))
	}
	fmt.Printf("version %d, level %s\n", res.Version, res.Level)
	return nil
}

// runBatch generates a ZIP archive from a CSV or TXT file.
func runBatch(cmd *cobra.Command, configPath string, flags *qrFlags, inPath, outFile string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.LogLevel)

	tmpl, err := flags.request(cmd, cfg)
	if err != nil {
		return err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open batch file: %w", err)
	}
	defer in.Close()

	values, err := batch.Parse(filepath.Base(inPath), in)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := batch.NewRunner(generator.NewService(nil, log), cfg.Batch.Workers, cfg.Batch.MaxValues, log)
	archive, err := runner.Run(ctx, values, tmpl)
	if err != nil {
		return err
	}

	if outFile == "" {
		outFile = archive.Name
	}
	out, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if err := archive.WriteZip(out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	info, err := os.Stat(outFile)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s): %d generated, %d failed\n",
		outFile, humanize.Bytes(uint64(info.Size())), len(archive.Items), len(archive.Failures))
	for _, f := range archive.Failures {
		fmt.Fprintf(os.Stderr, "line %d %q: %s\n", f.Line, f.Value, f.Error)
	}
	if len(archive.Items) == 0 {
		return errors.New("no value could be generated")
	}
	return nil
}
