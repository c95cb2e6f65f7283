// @title         marketwatch admin API
// @version       0.1.0
// @description   Manage marketplace watch queries and inspect scans, notifications and logs

package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketwatch/internal/adapters/search/goofish"
	"marketwatch/internal/adapters/verify/llm"
	"marketwatch/internal/modkit"
	"marketwatch/internal/modkit/module"
	"marketwatch/internal/platform/config"
	"marketwatch/internal/platform/logger"
	phttp "marketwatch/internal/platform/net/http"
	"marketwatch/internal/platform/store"

	"marketwatch/internal/services/api"
	watchapi "marketwatch/internal/services/api/watch/module"
	watchapisvc "marketwatch/internal/services/api/watch/service"
	notifymod "marketwatch/internal/services/notify/module"
	wdom "marketwatch/internal/services/watcher/domain"
	watchermod "marketwatch/internal/services/watcher/module"
	"marketwatch/internal/services/watcher/repo"
	watchersvc "marketwatch/internal/services/watcher/service"
)

func main() { os.Exit(run()) }

// run returns the process exit code so deferred closes always run
func run() int {
	var (
		fMode  = flag.String("mode", "serve", "serve | scan | cleanup | migrate")
		fQuery = flag.Int64("query", 0, "query id for -mode scan")
		fEnv   = flag.String("env", ".env", "dotenv file loaded before reading config")
	)
	flag.Parse()

	// .env must land before the logger reads LOG_*
	envErr := config.LoadDotenv(*fEnv)
	l := logger.Get()
	if envErr != nil {
		l.Error().Err(envErr).Str("file", *fEnv).Msg("load dotenv")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	st, err := store.Open(ctx, store.ConfigFromEnv("marketwatch"), store.WithLogger(*l))
	if err != nil {
		l.Error().Err(err).Msg("store.Open failed")
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if err := repo.Migrate(ctx, st.PG); err != nil {
		l.Error().Err(err).Msg("migrate")
		return 1
	}
	if *fMode == "migrate" {
		l.Info().Msg("schema applied")
		return 0
	}

	deps := modkit.Deps{Cfg: root, PG: st.PG, Log: *l}

	search := goofish.New(goofish.FromConfig(root))

	// a nil verifier reads as always unavailable; listings still notify
	var verifier wdom.VerifyPort
	if vo := llm.FromConfig(root); vo.Enabled() {
		verifier = llm.New(vo)
	} else {
		l.Warn().Msg("VERIFY_API_KEY not set; relevance checks disabled")
	}

	notify, err := notifymod.New(deps, notifymod.Options{})
	if err != nil {
		l.Error().Err(err).Msg("notify module")
		return 1
	}
	np := module.MustPortsOf[notifymod.Ports](notify)

	watcher := watchermod.New(deps, watchersvc.Ports{
		Search: search,
		Seller: search,
		Verify: verifier,
		Notify: np.Notifier,
	}, watchermod.Options{})
	wp := module.MustPortsOf[watchermod.Ports](watcher)

	defer closePorts(l, wp)

	switch *fMode {
	case "scan":
		return runScan(ctx, l, wp, *fQuery)
	case "cleanup":
		n, err := wp.Maint.Cleanup(ctx)
		if err != nil {
			l.Error().Err(err).Msg("cleanup failed")
			return 1
		}
		l.Info().Int64("deleted", n).Msg("cleanup done")
		return 0
	case "serve":
		return serve(ctx, l, deps, wp, np, notify, watcher)
	default:
		l.Error().Str("mode", *fMode).Msg("unknown -mode")
		return 2
	}
}

// runScan runs one synchronous scan and returns the process exit code
func runScan(ctx context.Context, l *logger.Logger, wp watchermod.Ports, id int64) int {
	if id <= 0 {
		l.Error().Msg("-mode scan needs -query N")
		return 2
	}
	res, err := wp.Scanner.RunScanNow(ctx, id)
	if err != nil {
		l.Error().Err(err).Int64("query_id", id).Msg("scan not run")
		return 1
	}
	l.Info().Int64("query_id", id).Int64("scan_id", res.ScanID).Str("status", string(res.Status)).
		Int("found", res.Counts.Found).Int("new", res.Counts.New).Int("notified", res.Counts.Notified).
		Msg("scan finished")
	if res.Status != wdom.ScanCompleted {
		return 1
	}
	return 0
}

func serve(ctx context.Context, l *logger.Logger, deps modkit.Deps, wp watchermod.Ports, np notifymod.Ports, mods ...module.Module) int {
	admin := watchapi.New(deps, watchapisvc.Ports{
		Admin:    wp.Admin,
		Stats:    wp.Stats,
		Scanner:  wp.Scanner,
		Channels: np.Channels,
	}, watchapi.Options{})

	srv := phttp.NewServer(deps.Cfg.Prefix("CORE_API_"))
	api.Mount(srv.Router(), api.Options{
		Deps:          deps,
		Modules:       []module.Module{admin},
		EnableSwagger: deps.Cfg.Prefix("CORE_API_").MayBool("SWAGGER", true),
	})

	if err := wp.Scheduler.Start(ctx); err != nil {
		l.Error().Err(err).Msg("scheduler start")
		return 1
	}
	names := make([]string, 0, len(mods)+1)
	for _, m := range append(mods, admin) {
		names = append(names, m.Name())
	}
	l.Info().Strs("modules", names).Ints64("scheduled", wp.Scheduler.Scheduled()).Msg("marketwatch running")

	code := 0
	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
		code = 1
	}

	// manual scans finish before closePorts shuts the browser
	sctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := admin.Drain(sctx); errors.Is(err, context.DeadlineExceeded) {
		l.Warn().Msg("manual scans still running at shutdown")
	}
	return code
}

// closePorts stops timers and closes the browser and verifier; Stop is idempotent
func closePorts(l *logger.Logger, wp watchermod.Ports) {
	if err := wp.Scheduler.Stop(context.Background()); err != nil {
		l.Warn().Err(err).Msg("close ports")
	}
}
