// Package main provides livecheck - end-to-end validation of a live transliteration widget.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/livecheck/pkg/catalog"
	"github.com/umputun/livecheck/pkg/config"
	"github.com/umputun/livecheck/pkg/converge"
	"github.com/umputun/livecheck/pkg/metrics"
	"github.com/umputun/livecheck/pkg/notify"
	"github.com/umputun/livecheck/pkg/progress"
	"github.com/umputun/livecheck/pkg/report"
	"github.com/umputun/livecheck/pkg/runner"
	"github.com/umputun/livecheck/pkg/ui"
	"github.com/umputun/livecheck/pkg/web"
)

// opts holds all command-line options.
type opts struct {
	ConfigDir  string   `long:"config-dir" env:"LIVECHECK_CONFIG_DIR" description:"global config directory (default ~/.config/livecheck)"`
	Target     string   `short:"t" long:"target" description:"widget url, overrides target_url"`
	Catalog    string   `short:"f" long:"catalog" description:"scenario catalog file (yaml), overrides catalog_file"`
	Suites     []string `short:"s" long:"suite" description:"run only the named suite, repeatable"`
	Cases      []string `short:"c" long:"case" description:"run only cases with ids matching the glob, repeatable"`
	Backend    string   `short:"b" long:"backend" choice:"playwright" choice:"chrome" description:"browser backend, overrides config"`
	Headed     bool     `long:"headed" description:"show the browser window"`
	Install    bool     `long:"install" description:"install playwright browsers before the run"`
	Repeat     int      `short:"r" long:"repeat" description:"runs per case, overrides config"`
	Reload     bool     `long:"reload" description:"re-open the target before every case"`
	List       bool     `short:"l" long:"list" description:"list selected cases and exit"`
	ShowReport string   `long:"show-report" description:"render a saved json report and exit"`
	Watch      bool     `short:"w" long:"watch" description:"rerun when the catalog file changes"`
	Serve      bool     `long:"serve" description:"start web dashboard with live events and metrics"`
	Port       int      `short:"p" long:"port" default:"8080" description:"web dashboard port"`
	NoColor    bool     `long:"no-color" description:"disable color output"`
	Version    bool     `short:"v" long:"version" description:"print version and exit"`
}

var revision = "unknown"

// exit codes
const (
	exitOK     = 0
	exitFailed = 1 // some cases did not pass or the run was interrupted
	exitSetup  = 2 // config, catalog or browser failure
)

// errCasesFailed is returned by run when the suite finished with failures.
var errCasesFailed = errors.New("cases failed")

func main() {
	fmt.Printf("livecheck %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(exitOK)
		}
		os.Exit(exitSetup)
	}

	if o.Version {
		os.Exit(exitOK)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, o, os.Stdout)
	code := exitCode(err)
	if code == exitSetup {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}

// exitCode maps the run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errCasesFailed), errors.Is(err, context.Canceled):
		return exitFailed
	default:
		return exitSetup
	}
}

func run(ctx context.Context, o opts, stdout io.Writer) error {
	if o.NoColor {
		color.NoColor = true
	}

	if o.ShowReport != "" {
		return showReport(o.ShowReport, o.NoColor, stdout)
	}

	cfg, err := config.Load(o.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, o)

	cat, err := loadCatalog(cfg.CatalogFile, o.Suites, o.Cases)
	if err != nil {
		return err
	}

	if o.List {
		listCases(stdout, cat)
		return nil
	}

	if o.Watch && cfg.CatalogFile == "" {
		return errors.New("--watch needs a catalog file, set --catalog or catalog_file")
	}

	baseLog, err := progress.NewLogger(progress.Config{
		Dir:     cfg.ReportDir,
		Target:  cfg.TargetURL,
		Catalog: catalogName(cfg.CatalogFile),
		Backend: cfg.Backend,
		NoColor: o.NoColor,
		Colors:  progressColors(cfg.Colors),
	})
	if err != nil {
		return fmt.Errorf("create progress logger: %w", err)
	}
	defer baseLog.Close()

	rec := metrics.NewRecorder()
	observers := []runner.Observer{rec}
	var runLog web.Logger = baseLog

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	var srv *web.Server
	if o.Serve {
		srv, err = web.NewServer(web.ServerConfig{Port: o.Port, Target: cfg.TargetURL}, rec.Handler())
		if err != nil {
			return fmt.Errorf("create web server: %w", err)
		}
		observers = append(observers, srv)
		runLog = web.NewBroadcastLogger(baseLog, srv)
		g.Go(func() error { return srv.Start(runCtx) })
		baseLog.SetPhase(progress.PhaseSetup)
		baseLog.Print("web dashboard: http://localhost:%d", o.Port)
	}

	var runErr error
	g.Go(func() error {
		defer stopServer() // the dashboard lives as long as the run
		e := execute(runCtx, execParams{cfg: cfg, opts: o, cat: cat, log: runLog, observers: observers, srv: srv})
		runErr = e
		if e != nil && !errors.Is(e, errCasesFailed) && !errors.Is(e, context.Canceled) {
			return e
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	baseLog.SetPhase(progress.PhaseSummary)
	baseLog.Print("completed in %s", baseLog.Elapsed())
	return runErr
}

// execParams holds everything execute needs besides the context.
type execParams struct {
	cfg       *config.Config
	opts      opts
	cat       *catalog.Catalog
	log       web.Logger
	observers []runner.Observer
	srv       *web.Server // nil without --serve
}

// execute opens the browser session and runs the catalog once, or repeatedly in watch mode.
func execute(ctx context.Context, p execParams) error {
	settler, err := converge.NewSettler(p.cfg.SettlePolicy, config.Ms(p.cfg.SettleMs))
	if err != nil {
		return fmt.Errorf("settle policy: %w", err)
	}

	notifier, err := notify.New(p.cfg.NotifyParams, p.log)
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}

	p.log.SetPhase(progress.PhaseSetup)
	p.log.Print("starting %s backend for %s", p.cfg.Backend, p.cfg.TargetURL)
	sess, err := newSession(ctx, p.cfg)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			p.log.Warn("close browser: %v", cerr)
		}
	}()

	if err := sess.Open(ctx); err != nil {
		return fmt.Errorf("open target: %w", err)
	}

	r := runner.New(runner.Config{
		Target:             p.cfg.TargetURL,
		AfterClear:         config.Ms(p.cfg.AfterClearMs),
		BetweenCases:       config.Ms(p.cfg.BetweenCasesMs),
		PollInterval:       config.Ms(p.cfg.PollIntervalMs),
		ConvergenceTimeout: config.Ms(p.cfg.ConvergenceTimeoutMs),
		PartialTimeout:     config.Ms(p.cfg.PartialTimeoutMs),
		Settle:             settler,
		Repeat:             p.cfg.Repeat,
		ReloadEachCase:     p.cfg.ReloadEachCase,
		Observers:          p.observers,
	}, sess, p.log)

	runOnce := func(cat *catalog.Catalog) error {
		rep, runErr := r.Run(ctx, cat)
		finish(ctx, p, notifier, rep, runErr)
		if runErr != nil {
			return runErr
		}
		if rep.Failed() {
			return errCasesFailed
		}
		return nil
	}

	err = runOnce(p.cat)
	if !p.opts.Watch || ctx.Err() != nil {
		return err
	}

	return watchCatalog(ctx, p.cfg.CatalogFile, p.log, func() error {
		cat, lerr := loadCatalog(p.cfg.CatalogFile, p.opts.Suites, p.opts.Cases)
		if lerr != nil {
			p.log.Error("reload catalog: %v", lerr)
			return nil // keep watching, the next save may fix it
		}
		if oerr := sess.Open(ctx); oerr != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Warn("re-open target: %v, running on the current page", oerr)
		}
		if rerr := runOnce(cat); rerr != nil && !errors.Is(rerr, errCasesFailed) {
			return rerr
		}
		return nil
	})
}

// finish renders the report, saves it, publishes it to the dashboard and sends notifications.
// it runs on interrupted runs too, with the partial report.
func finish(ctx context.Context, p execParams, notifier *notify.Service, rep runner.Report, runErr error) {
	p.log.SetPhase(progress.PhaseSummary)
	if rendered, err := report.Render(report.Markdown(rep), p.opts.NoColor); err == nil {
		p.log.PrintAligned(rendered)
	} else {
		p.log.Warn("render report: %v", err)
	}

	if path, err := report.WriteJSON(p.cfg.ReportDir, rep); err != nil {
		p.log.Warn("save report: %v", err)
	} else {
		p.log.Print("report saved to %s", path)
	}

	if p.srv != nil {
		p.srv.SetReport(rep)
	}

	// the run context may be canceled already, notifications still go out
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	notifier.Send(nctx, notifyResult(rep, runErr))
}

// notifyResult converts a report into a notification payload.
func notifyResult(rep runner.Report, runErr error) notify.Result {
	passed, failed := rep.Totals()
	res := notify.Result{
		Status:   "success",
		Target:   rep.Target,
		RunID:    rep.RunID,
		Total:    passed + failed,
		Passed:   passed,
		Failed:   failed,
		Duration: report.Duration(rep),
	}
	for _, v := range rep.Failures() {
		res.Failures = append(res.Failures, v.CaseID)
	}
	if failed > 0 {
		res.Status = "failure"
	}
	if runErr != nil {
		res.Status = "failure"
		res.Error = runErr.Error()
	}
	return res
}

// applyOverrides applies command-line options on top of the loaded config.
func applyOverrides(cfg *config.Config, o opts) {
	if o.Target != "" {
		cfg.TargetURL = o.Target
	}
	if o.Catalog != "" {
		cfg.CatalogFile = o.Catalog
	}
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.Headed {
		cfg.Headless = false
	}
	if o.Install {
		cfg.InstallBrowsers = true
	}
	if o.Repeat > 0 {
		cfg.Repeat = o.Repeat
	}
	if o.Reload {
		cfg.ReloadEachCase = true
	}
}

// buildTarget converts config values into the ui target description.
func buildTarget(cfg *config.Config) ui.Target {
	return ui.Target{
		URL:              cfg.TargetURL,
		InputSelector:    cfg.InputSelector,
		InputRole:        cfg.InputRole,
		InputName:        cfg.InputName,
		OutputSelector:   cfg.OutputSelector,
		Browser:          cfg.Browser,
		Headless:         cfg.Headless,
		PageLoad:         config.Ms(cfg.PageLoadMs),
		DiscoveryTimeout: config.Ms(cfg.DiscoveryTimeoutMs),
		TypingDelay:      config.Ms(cfg.TypingDelayMs),
	}
}

// newSession starts the configured browser backend.
func newSession(ctx context.Context, cfg *config.Config) (ui.Session, error) {
	target := buildTarget(cfg)
	switch cfg.Backend {
	case "chrome":
		return ui.NewChrome(ctx, target), nil
	case "", "playwright":
		return ui.NewPlaywright(target, ui.PlaywrightOptions{Install: cfg.InstallBrowsers})
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// loadCatalog reads the catalog file, or the embedded one if fname is empty, and applies the filters.
func loadCatalog(fname string, suites, cases []string) (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	var err error
	if fname == "" {
		cat, err = catalog.Default()
	} else {
		cat, err = catalog.Load(fname)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	cat, err = cat.Filter(suites, cases)
	if err != nil {
		return nil, fmt.Errorf("filter catalog: %w", err)
	}
	if cat.Size() == 0 {
		return nil, errors.New("no cases selected")
	}
	return cat, nil
}

func catalogName(fname string) string {
	if fname == "" {
		return "embedded"
	}
	return filepath.Base(fname)
}

func listCases(w io.Writer, cat *catalog.Catalog) {
	for _, s := range cat.Suites {
		fmt.Fprintf(w, "%s (%s, %s): %d cases\n", s.Name, s.Policy, s.Mode, len(s.Cases))
		for _, tc := range s.Cases {
			fmt.Fprintf(w, "  %-14s %s\n", tc.ID, tc.Name)
		}
	}
}

func showReport(path string, noColor bool, w io.Writer) error {
	rep, err := report.ReadJSON(path)
	if err != nil {
		return err
	}
	out, err := report.Render(report.Markdown(rep), noColor)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	fmt.Fprint(w, out)
	if rep.Failed() {
		return errCasesFailed
	}
	return nil
}

func progressColors(c config.ColorConfig) progress.Colors {
	return progress.Colors{
		Setup:     c.Setup,
		Case:      c.Case,
		Pass:      c.Pass,
		Fail:      c.Fail,
		Summary:   c.Summary,
		Warn:      c.Warn,
		Error:     c.Error,
		Timestamp: c.Timestamp,
	}
}
