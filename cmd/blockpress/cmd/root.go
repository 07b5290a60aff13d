// Package cmd implements the blockpress command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arloliu/blockpress/app"
	"github.com/arloliu/blockpress/config"
	"github.com/arloliu/blockpress/event"
	"github.com/arloliu/blockpress/metrics"
)

// exitError carries a non-zero run status out of a command.
type exitError struct {
	status int
}

func (e *exitError) Error() string {
	return "exit status " + strconv.Itoa(e.status)
}

type globalFlags struct {
	configPath  string
	metricsFile string
	verbosity   int
	jobs        int
	overwrite   bool
}

// runner is the part of app.Compressor and app.Decompressor the commands use.
type runner interface {
	Run(ctx context.Context) int
	AddListener(l event.Listener) bool
	Dispose()
	Stats() app.RunStats
}

// NewRootCommand builds the blockpress command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "blockpress",
		Short: "blockpress - block-oriented compressor",
		Long: `blockpress compresses data in independent blocks, processed by a pool of
workers and written in order. Each block is filtered by a chain of reversible
transforms and then entropy coded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "YAML file with default options")
	flags.IntVarP(&g.verbosity, "verbosity", "v", app.DefaultVerbosity, "verbosity level (0-5)")
	flags.IntVarP(&g.jobs, "jobs", "j", 1, "number of block workers")
	flags.BoolVarP(&g.overwrite, "overwrite", "f", false, "overwrite an existing output")
	flags.StringVar(&g.metricsFile, "metrics-file", "", "write Prometheus metrics of the run to this file")

	root.AddCommand(newCompressCommand(g), newDecompressCommand(g), newLevelsCommand())

	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return execute(ctx, NewRootCommand(), os.Args[1:])
}

func execute(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return app.StatusOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.status
	}

	fmt.Fprintln(root.ErrOrStderr(), "Error:", err)

	return app.StatusInvalidParam
}

// options merges the config file defaults with the flags set on the command line.
func (g *globalFlags) options(cmd *cobra.Command, defaults func(*config.Config) map[string]string) (map[string]string, string, error) {
	var fileCfg *config.Config
	if g.configPath != "" {
		var err error
		if fileCfg, err = config.Load(g.configPath); err != nil {
			return nil, "", err
		}
	}

	opts := defaults(fileCfg)

	metricsFile := g.metricsFile
	if !cmd.Flags().Changed("metrics-file") && fileCfg != nil {
		metricsFile = fileCfg.MetricsFile
	}

	if cmd.Flags().Changed("verbosity") {
		opts[app.KeyVerbosity] = strconv.Itoa(g.verbosity)
	}
	if cmd.Flags().Changed("jobs") {
		opts[app.KeyJobs] = strconv.Itoa(g.jobs)
	}
	if cmd.Flags().Changed("overwrite") {
		opts[app.KeyOverwrite] = strconv.FormatBool(g.overwrite)
	}

	return opts, metricsFile, nil
}

// setString copies a string flag into opts when it was given.
func setString(cmd *cobra.Command, opts map[string]string, flag, key string) {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		opts[key] = v
	}
}

func newLogger(w io.Writer, verbosity int) *zap.Logger {
	level := zapcore.InfoLevel
	if verbosity >= 3 {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(zapcore.AddSync(w)), level)

	return zap.New(core)
}

// verbosityOf returns the verbosity the run will use, for logger setup.
func verbosityOf(opts map[string]string) int {
	if v, err := strconv.Atoi(opts[app.KeyVerbosity]); err == nil {
		return v
	}

	return app.DefaultVerbosity
}

// run creates the orchestrator with create, runs it and turns its status into the
// command result. A negative status is a warning and the command still succeeds.
func run(cmd *cobra.Command, op string, opts map[string]string, metricsFile string,
	create func(opts map[string]string, runOpts ...app.Option) (runner, error),
) error {
	logger := newLogger(cmd.ErrOrStderr(), verbosityOf(opts))
	defer func() { _ = logger.Sync() }()

	r, err := create(opts,
		app.WithLogger(logger),
		app.WithStdin(cmd.InOrStdin()),
		app.WithStdout(cmd.OutOrStdout()),
	)
	if err != nil {
		logger.Error("invalid options", zap.String("op", op), zap.Error(err))
		return &exitError{status: app.StatusOf(err)}
	}
	defer r.Dispose()

	var reg *prometheus.Registry
	if metricsFile != "" {
		reg = prometheus.NewRegistry()
		l, err := metrics.NewListener(reg, op)
		if err != nil {
			return err
		}
		r.AddListener(l)
	}

	status := r.Run(cmd.Context())
	r.Dispose()

	if reg != nil {
		if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
			logger.Warn("write metrics", zap.String("file", metricsFile), zap.Error(err))
		}
	}

	switch {
	case status < 0:
		stats := r.Stats()
		logger.Warn("finished with warning", zap.String("op", op), zap.Int("status", status),
			zap.String("run_id", stats.RunID))

		return nil
	case status > 0:
		return &exitError{status: status}
	default:
		return nil
	}
}
