package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/rester/packages/core/config"
	"github.com/abdul-hamid-achik/rester/packages/core/env"
	"github.com/abdul-hamid-achik/rester/packages/core/loop"
	"github.com/abdul-hamid-achik/rester/packages/core/parser"
	"github.com/abdul-hamid-achik/rester/packages/core/runner"
	"github.com/abdul-hamid-achik/rester/packages/http"
	"github.com/abdul-hamid-achik/rester/packages/output"
	"github.com/abdul-hamid-achik/rester/packages/stats"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <restfile>",
	Short: "Run the requests of a Restfile",
	Long: `Run the requests of a Restfile in declared order.

Examples:
  rester run api.rest.yml
  rester run api.rest.yml --count 10 --stats
  rester run api.rest.yml --duration 1m --loop 2
  rester run api.rest.yml --request login --request me -v
  rester run api.rest.yml --output json > results.json
  rester run api.rest.yml --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runCommand,
}

var (
	countFlag    int
	durationFlag string
	loopFlag     string
	statsFlag    bool
	timeoutFlag  string
	verboseFlag  int // 0=warn, 1=-v, 2=-vv
	workdirFlag  string
	insecureFlag bool
	requestFlag  []string
	outputFlag   string
	configFlag   string
	envFileFlag  string
	rateFlag     float64
	watchFlag    bool
	noColorFlag  bool
)

func init() {
	// Loop flags
	runCmd.Flags().IntVarP(&countFlag, "count", "c", 0, "Run the document this many times")
	runCmd.Flags().StringVarP(&durationFlag, "duration", "d", "", "Keep running the document for this long (e.g. 30s, 5m)")
	runCmd.Flags().StringVarP(&loopFlag, "loop", "l", "", "Delay between runs; loops forever without --count or --duration (plain numbers are seconds)")
	runCmd.Flags().BoolVarP(&statsFlag, "stats", "s", false, "Print per request statistics at the end")

	// Execution flags
	runCmd.Flags().StringVarP(&timeoutFlag, "timeout", "t", "5s", "Per request timeout (e.g. 5s, 500ms)")
	runCmd.Flags().StringArrayVarP(&requestFlag, "request", "r", nil, "Run only the named request (repeatable)")
	runCmd.Flags().StringVarP(&workdirFlag, "workdir", "w", "", "Directory documents and body files are resolved from")
	runCmd.Flags().Float64Var(&rateFlag, "rate", 0, "Maximum requests per second (0 is unlimited)")
	runCmd.Flags().BoolVar(&watchFlag, "watch", false, "Re-run whenever the document changes")

	// Network flags
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", false, "Disable SSL certificate validation")

	// Output flags
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v, -vv for more detail)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", config.DefaultOutput, "Output format: console, json")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")

	// Configuration flags
	runCmd.Flags().StringVar(&configFlag, "config", "", "Path to config file")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", "", "Path to .env file consulted for unresolved ${NAME} references")
}

func runCommand(cmd *cobra.Command, args []string) error {
	fs := afero.NewOsFs()

	cfg, err := loadConfig(cmd, fs)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	path, baseDir := resolvePaths(args[0], workdirFlag)

	opts, err := loopOptions(cmd)
	if err != nil {
		return err
	}
	if opts.Conflicting() {
		log.Warn("both --count and --duration given; --count takes precedence")
	}

	environment := env.FromOS()
	if cfg.EnvFile != "" {
		dotenv, err := env.LoadDotEnv(fs, cfg.EnvFile)
		if err != nil {
			return err
		}
		environment = environment.WithDefaults(dotenv)
	}
	resolver := env.NewResolver(environment)
	resolver.SetWarnFunc(log.Warnf)

	client := newClient(cfg)

	if err := output.CheckFormat(cfg.Output); err != nil {
		return err
	}
	if !strings.EqualFold(cfg.Output, "json") {
		header, _ := output.New(cfg.Output, cmd.OutOrStdout(), cfg.Verbose > 0, cfg.GetNoColor())
		header.FormatHeader(version)
	}

	execute := func(ctx context.Context) (loop.Summary, error) {
		formatter, _ := output.New(cfg.Output, cmd.OutOrStdout(), cfg.Verbose > 0, cfg.GetNoColor())
		start := time.Now()
		summary, err := executeDocument(ctx, executeOptions{
			fs:        fs,
			path:      path,
			baseDir:   baseDir,
			requests:  requestFlag,
			client:    client,
			resolver:  resolver,
			timeout:   cfg.Timeout,
			loop:      opts,
			stats:     cfg.GetStats(),
			formatter: formatter,
			log:       log,
		})
		if err != nil {
			formatter.FormatError(err)
		}
		if flushable, ok := formatter.(output.Flushable); ok {
			if ferr := flushable.Flush(time.Since(start)); ferr != nil {
				log.WithError(ferr).Error("writing output")
			}
		}
		return summary, err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supervisor := runner.NewSupervisor[loop.Summary]()
	if watchFlag {
		return watch(ctx, cmd, path, supervisor, execute, log)
	}

	supervisor.Run(ctx, execute)
	summary, err := supervisor.Value(ctx)
	if err != nil || !summary.Passed {
		return errRequestsFailed
	}
	return nil
}

type executeOptions struct {
	fs        afero.Fs
	path      string
	baseDir   string
	requests  []string
	client    *http.Client
	resolver  *env.Resolver
	timeout   time.Duration
	loop      loop.Options
	stats     bool
	formatter output.Formatter
	log       *logrus.Entry
}

// executeDocument loads the document and drives it through the loop
// controller, reporting as it goes.
func executeDocument(ctx context.Context, o executeOptions) (loop.Summary, error) {
	file, err := parser.Load(o.fs, o.path)
	if err != nil {
		return loop.Summary{}, err
	}
	if len(o.requests) > 0 {
		selected, err := file.Requests.Select(o.requests)
		if err != nil {
			return loop.Summary{}, err
		}
		file.Requests = selected
	}

	agg := stats.NewAggregator()
	r := runner.New(o.client,
		runner.WithResolver(o.resolver),
		runner.WithFileSystem(o.fs, o.baseDir),
		runner.WithTimeout(o.timeout),
		runner.WithStats(agg),
		runner.WithLogger(o.log),
		runner.WithHooks(runner.Hooks{After: o.formatter.FormatRequest}),
	)

	controller := loop.NewController(loop.WithLogger(o.log))
	session := r.NewSession(file)
	summary, err := controller.Run(ctx, o.loop.Parameters(time.Now()), session.Iterate(o.formatter.FormatResult))

	if o.stats {
		o.formatter.FormatStats(agg.Summary())
	}
	return summary, err
}

// loadConfig reads the config file, then lets explicitly set flags win.
func loadConfig(cmd *cobra.Command, fs afero.Fs) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configFlag != "" {
		cfg, err = config.LoadConfig(fs, configFlag)
	} else {
		dir := workdirFlag
		if dir == "" {
			dir = "."
		}
		cfg, err = config.FindAndLoadConfig(fs, dir)
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overrides := &config.Config{}
	if flags.Changed("timeout") || cfg.Timeout <= 0 {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 5s, 500ms)", timeoutFlag, err)
		}
		overrides.Timeout = timeout
	}
	if flags.Changed("insecure") {
		overrides.ValidateSSL = config.BoolPtr(!insecureFlag)
	}
	if flags.Changed("rate") {
		overrides.RateLimit = rateFlag
	}
	if flags.Changed("verbose") {
		overrides.Verbose = verboseFlag
	}
	if flags.Changed("no-color") {
		overrides.NoColor = config.BoolPtr(noColorFlag)
	}
	if flags.Changed("stats") {
		overrides.Stats = config.BoolPtr(statsFlag)
	}
	if flags.Changed("output") {
		overrides.Output = outputFlag
	}
	if flags.Changed("env-file") {
		overrides.EnvFile = envFileFlag
	}
	return cfg.Merge(overrides), nil
}

func loopOptions(cmd *cobra.Command) (loop.Options, error) {
	var opts loop.Options
	flags := cmd.Flags()

	if flags.Changed("count") {
		if countFlag < 0 {
			return opts, fmt.Errorf("--count must not be negative")
		}
		count := countFlag
		opts.Count = &count
	}
	if flags.Changed("duration") {
		d, err := parseSeconds(durationFlag)
		if err != nil {
			return opts, fmt.Errorf("invalid duration %q: %w", durationFlag, err)
		}
		opts.Duration = &d
	}
	if flags.Changed("loop") {
		d, err := parseSeconds(loopFlag)
		if err != nil {
			return opts, fmt.Errorf("invalid loop delay %q: %w", loopFlag, err)
		}
		opts.Delay = &d
	}
	return opts, nil
}

// parseSeconds accepts Go durations and plain numbers of seconds.
func parseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if seconds, err := strconv.ParseFloat(s, 64); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("must not be negative")
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}

// resolvePaths returns the document path and the directory relative
// file references are read from.
func resolvePaths(document, workdir string) (string, string) {
	if workdir == "" {
		return document, filepath.Dir(document)
	}
	if !filepath.IsAbs(document) {
		document = filepath.Join(workdir, document)
	}
	return document, workdir
}

func newClient(cfg *config.Config) *http.Client {
	opts := []http.ClientOption{
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithValidateSSL(cfg.GetValidateSSL()),
	}
	if cfg.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		opts = append(opts, http.WithProxy(cfg.Proxy))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, http.WithDefaultHeaders(cfg.Headers))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, http.WithRateLimit(cfg.RateLimit))
	}
	return http.NewClient(opts...)
}
