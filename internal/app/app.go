package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"marketwatch/internal/alerting"
	"marketwatch/internal/config"
	"marketwatch/internal/fetcher"
	"marketwatch/internal/holiday"
	"marketwatch/internal/pdftext"
	"marketwatch/internal/scheduler"
	"marketwatch/internal/service"
	"marketwatch/internal/state"
	"marketwatch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newClient() *fetcher.Client {
	return fetcher.NewClient(fetcher.ClientOptions{
		Timeout:        a.Config.Fetch.RequestTimeout,
		UserAgent:      a.Config.Fetch.UserAgent,
		AcceptLanguage: a.Config.Fetch.AcceptLanguage,
		Policy:         fetcher.DefaultRetryPolicy(a.Config.Fetch.MaxAttempts, a.Config.Fetch.BackoffBase),
	}, a.Logger)
}

// newNotifier returns the Slack notifier, or the console fallback when no
// bot token is configured (dry-run mode).
func (a *App) newNotifier() alerting.Notifier {
	cfg := a.Config.Slack
	if cfg.BotToken == "" {
		a.Logger.Warn().Msg("slack.bot_token not configured; notifications go to console")
		return alerting.NewConsoleNotifier(nil)
	}
	return alerting.NewSlackNotifier(cfg.BotToken, cfg.Channel, cfg.APIBase, cfg.Timeout, a.Logger)
}

func (a *App) newStates() *state.Store {
	return state.NewStore(a.Config.State.Dir, a.Logger)
}

func (a *App) newHolidays() *holiday.Checker {
	return holiday.NewChecker(a.Config.Holidays.Extra)
}

// openRecords returns the configured daily-record backend. The alert store
// is only available on the Postgres backend; nil disables alert auditing.
func (a *App) openRecords(ctx context.Context) (storage.RecordStore, storage.AlertStore, func(), error) {
	if a.Config.Records.Backend == "postgres" {
		pool, err := storage.NewPool(ctx, a.Config.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := storage.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		store := storage.NewStore(pool)
		return store, store, store.Close, nil
	}
	return storage.NewCSVStore(a.Config.Records.CSVDir), nil, nil, nil
}

func (a *App) newCustomsService() *service.CustomsService {
	client := a.newClient()
	board := fetcher.NewCustoms(fetcher.CustomsOptions{
		BoardURL:  a.Config.Customs.BoardURL,
		DetailURL: a.Config.Customs.DetailURL,
		SiteBase:  a.Config.Customs.SiteBase,
		MenuID:    a.Config.Customs.MenuID,
		BoardID:   a.Config.Customs.BoardID,
	}, client, a.Logger)

	boardLink := a.Config.Customs.BoardURL + "?mi=" + a.Config.Customs.MenuID + "&bbsId=" + a.Config.Customs.BoardID
	return service.NewCustoms(board, pdftext.Reader{}, a.newStates(), a.newNotifier(), a.newHolidays(), boardLink, a.Logger)
}

func (a *App) newStockService(alerts storage.AlertStore) *service.StockService {
	client := a.newClient()
	quotes := fetcher.NewOHLCV(fetcher.OHLCVOptions{BaseURL: a.Config.Stock.OHLCVBaseURL}, client, a.Logger)
	return service.NewStock(quotes, a.newStates(), alerts, a.newNotifier(), a.newHolidays(),
		a.Config.Stock.Tickers, a.Config.Stock.ThresholdPct, a.Logger)
}

// CheckCustoms runs one customs board sweep.
func (a *App) CheckCustoms(ctx context.Context) error {
	return a.newCustomsService().CheckOnce(ctx)
}

// CheckDram runs one DRAM spot price check.
func (a *App) CheckDram(ctx context.Context) error {
	records, _, closeRecords, err := a.openRecords(ctx)
	if err != nil {
		return err
	}
	if closeRecords != nil {
		defer closeRecords()
	}

	client := a.newClient()
	prices := fetcher.NewDram(fetcher.DramOptions{
		BaseURL: a.Config.Dram.BaseURL,
		Targets: a.Config.Dram.Targets,
	}, client, a.Logger)

	svc := service.NewDram(prices, records, a.newNotifier(), a.Config.Dram.Targets, a.Config.Dram.SheetName, a.Logger)
	return svc.CheckOnce(ctx)
}

// CheckOil runs one oil price check.
func (a *App) CheckOil(ctx context.Context) error {
	records, _, closeRecords, err := a.openRecords(ctx)
	if err != nil {
		return err
	}
	if closeRecords != nil {
		defer closeRecords()
	}

	client := a.newClient()
	quotes := fetcher.NewOHLCV(fetcher.OHLCVOptions{BaseURL: a.Config.Oil.OHLCVBaseURL}, client, a.Logger)
	prices := fetcher.NewOil(fetcher.OilOptions{
		Tickers:     a.Config.Oil.Tickers,
		ScrapeURL:   a.Config.Oil.ScrapeURL,
		ScrapeNames: a.Config.Oil.ScrapeNames,
	}, quotes, client, a.Logger)

	svc := service.NewOil(prices, records, a.newNotifier(), a.newHolidays(), a.Config.Oil.Types, a.Config.Oil.SheetName, a.Logger)
	return svc.CheckOnce(ctx)
}

// CheckStocks runs one stock sweep against persisted dedup state.
func (a *App) CheckStocks(ctx context.Context) error {
	_, alerts, closeRecords, err := a.openRecords(ctx)
	if err != nil {
		return err
	}
	if closeRecords != nil {
		defer closeRecords()
	}
	return a.newStockService(alerts).CheckOnce(ctx)
}

// Summary posts the daily close summary.
func (a *App) Summary(ctx context.Context) error {
	return a.newStockService(nil).Summary(ctx)
}

// Run executes the long-running stock monitoring loop.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, alerts, closeRecords, err := a.openRecords(ctx)
	if err != nil {
		return err
	}
	if closeRecords != nil {
		defer closeRecords()
	}

	svc := a.newStockService(alerts)

	a.Logger.Info().
		Int("tickers", len(a.Config.Stock.Tickers)).
		Float64("threshold_pct", a.Config.Stock.ThresholdPct).
		Dur("interval", a.Config.Scheduler.Interval).
		Msg("starting stock monitoring loop")

	err = svc.RunLoop(ctx, scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("monitoring loop terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring loop stopped")
	return nil
}
