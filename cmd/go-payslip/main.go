package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/tartampluch/go-payslip/internal/config"
	"github.com/tartampluch/go-payslip/internal/engine"
	"github.com/tartampluch/go-payslip/internal/messages"
	"github.com/tartampluch/go-payslip/internal/period"
	"github.com/tartampluch/go-payslip/internal/portal"
	"github.com/tartampluch/go-payslip/internal/secret"
	"github.com/tartampluch/go-payslip/internal/server"
)

// options are the parsed command-line flags.
type options struct {
	debug    bool
	year     int
	fullScan bool
	root     string
	envPath  string
	loginID  string
	serve    bool
	port     string
}

// main delegates to runMain so deferred calls (closing log files) run
// before os.Exit.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. CLI Argument Parsing
	// -------------------------------------------------------------------------
	var opts options
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	flag.BoolVar(&opts.debug, config.FlagDebug, false, config.FlagDescDebug)
	flag.IntVar(&opts.year, config.FlagYear, 0, config.FlagDescYear)
	flag.BoolVar(&opts.fullScan, config.FlagFullScan, false, config.FlagDescFullScan)
	flag.StringVar(&opts.root, config.FlagRoot, ".", config.FlagDescRoot)
	flag.StringVar(&opts.envPath, config.FlagEnv, config.DefaultEnvFile, config.FlagDescEnv)
	flag.StringVar(&opts.loginID, config.FlagID, "", config.FlagDescID)
	flag.BoolVar(&opts.serve, config.FlagServe, false, config.FlagDescServe)
	flag.StringVar(&opts.port, config.FlagPort, config.DefaultPort, config.FlagDescPort)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Logging Initialization
	// -------------------------------------------------------------------------
	logCloser := setupLogging(opts.debug)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close()
		}()
	}

	// -------------------------------------------------------------------------
	// 3. Context & Signal Handling
	// -------------------------------------------------------------------------
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	// -------------------------------------------------------------------------
	// 4. Application Logic
	// -------------------------------------------------------------------------
	if err := run(ctx, opts, os.Stdout); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		fmt.Fprintln(os.Stderr, err)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run wires the dependencies, performs one synchronization and optionally
// keeps serving the result until ctx is cancelled.
func run(ctx context.Context, opts options, out io.Writer) error {
	settings, err := config.LoadSettings(opts.envPath)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(opts.root)
	if err != nil {
		return err
	}

	catalog := messages.New(settings.Language)

	cipher, err := secret.NewMachineCipher()
	if err != nil {
		return err
	}
	credStore, err := secret.NewStore(settings.CredentialBackend, opts.envPath, cipher)
	if err != nil {
		return err
	}

	loginID, password := resolveCredentials(opts.loginID, settings.Password, credStore)

	trace, traceCloser, err := openTrace(root)
	if err != nil {
		return err
	}
	defer func() { _ = traceCloser.Close() }()

	mode := period.ModeTargetedYear
	if opts.fullScan {
		mode = period.ModeFullScan
	}

	syncer := &engine.Syncer{
		Clock:       engine.RealClock{},
		Portal:      portal.NewClient(settings.BaseURL, settings.CompanyCode, settings.HTTPTimeout, trace),
		Credentials: credStore,
		Messages:    catalog,
	}

	res, err := syncer.Run(ctx, engine.RunRequest{
		LoginID:    loginID,
		Password:   password,
		TargetYear: opts.year,
		Mode:       mode,
		RootDir:    root,
	}, &consoleProgress{w: out})
	if err != nil {
		return err
	}

	printReport(out, catalog, res)

	if !opts.serve {
		return nil
	}
	return serve(ctx, opts.port, res, catalog, out)
}

// resolveCredentials prefers the flag and the environment over stored values.
func resolveCredentials(flagID, envPassword string, s secret.Store) (string, string) {
	storedID, storedPW, err := s.Load()
	if err != nil {
		slog.Warn(config.ErrCredentialLoad,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
	}

	loginID := flagID
	if loginID == "" {
		loginID = storedID
	}
	password := envPassword
	if password == "" {
		password = storedPW
	}
	return loginID, password
}

// openTrace creates <root>/output/network_trace.log, replacing the previous
// run's trace.
func openTrace(root string) (*slog.Logger, io.Closer, error) {
	dir := filepath.Join(root, config.OutputDir)
	if err := os.MkdirAll(dir, config.DirPermShared); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", config.ErrTraceFile, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, config.TraceFileName), os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", config.ErrTraceFile, err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger.With(config.LogKeyComponent, config.CompPortal), f, nil
}

func serve(ctx context.Context, port string, res *engine.Result, catalog *messages.Catalog, out io.Writer) error {
	srv := server.New(port)
	if err := srv.Publish(res.All, time.Now()); err != nil {
		return err
	}

	url := config.SchemeHTTP + "://" + config.LocalhostBindAddr + config.AddrSeparator + port + config.RouteFeed
	fmt.Fprintln(out, catalog.T(config.TKeyReportServing, map[string]any{"URL": url}))

	err := srv.Start(ctx)
	if errors.Is(ctx.Err(), context.Canceled) {
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
	}
	return err
}

// printVersion outputs the build information to stdout.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger. Logs always go to the
// cache-dir log file; -debug also mirrors them to stdout.
func setupLogging(debugMode bool) io.Closer {
	var writers []io.Writer
	var logFile *os.File

	if debugMode {
		writers = append(writers, os.Stdout)
	}

	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)

	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
