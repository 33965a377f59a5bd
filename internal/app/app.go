// Package app wires the services together and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"dayplan/internal/config"
	"dayplan/internal/eventbus"
	"dayplan/internal/notify"
	"dayplan/internal/plan"
	"dayplan/internal/services/reminder"
	syncsvc "dayplan/internal/services/sync"
	"dayplan/internal/storage"
	"dayplan/internal/transport/telegram"
	"dayplan/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager

	logSvc *logx.Service
	log    logx.Logger
	bus    eventbus.Bus

	store       storage.Store
	notifySvc   *notify.Service
	reminderSvc *reminder.Service
	syncSvc     *syncsvc.Service

	mu      sync.Mutex
	planner plan.WorkingHours
	slotMin int

	watchCancel context.CancelFunc
	watchWG     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	mgr.SetLogger(log.With(logx.String("svc", "config")))

	a := &App{
		cfgMgr: mgr,
		logSvc: logSvc,
		log:    log,
		bus:    eventbus.New(),
	}

	if err := a.build(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config) error {
	var storeCfg storage.Config
	if cfg.Storage != nil {
		busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
		if err != nil {
			return err
		}
		storeCfg = storage.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
		}
	}
	store, err := storage.Open(storeCfg, a.log.With(logx.String("svc", "storage")))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.store = store

	sinks := []notify.Sink{notify.ConsoleSink{}}
	if tg := telegramConfig(cfg); tg != nil {
		sink, err := telegram.New(*tg, a.log.With(logx.String("svc", "telegram")))
		if err != nil {
			a.log.Warn("telegram sink unavailable", logx.Err(err))
		} else {
			sinks = append(sinks, sink)
		}
	}

	a.notifySvc = notify.New(notify.Config{
		Enabled:    cfg.Notify.Enabled,
		RatePerSec: cfg.Notify.RatePerSec,
	}, a.log.With(logx.String("svc", "notify")), a.bus, sinks...)

	offset, err := config.ParseDurationOrDefault("reminder.default_offset", cfg.Reminder.DefaultOffset, 15*time.Minute)
	if err != nil {
		return err
	}
	a.reminderSvc = reminder.New(reminder.Config{
		Enabled:       cfg.Reminder.Enabled,
		DefaultOffset: offset,
	}, a.notifySvc, a.log.With(logx.String("svc", "reminder")), a.bus)

	if cfg.Sync.Enabled && store == nil {
		return fmt.Errorf("sync requires storage to be configured")
	}
	replayEvery, err := config.ParseDurationOrDefault("sync.replay_every", cfg.Sync.ReplayEvery, time.Minute)
	if err != nil {
		return err
	}
	probeTimeout, err := config.ParseDurationField("sync.probe_timeout", cfg.Sync.ProbeTimeout)
	if err != nil {
		return err
	}
	a.syncSvc = syncsvc.New(syncsvc.Config{
		Enabled:      cfg.Sync.Enabled,
		ReplayEvery:  replayEvery,
		ProbeAddr:    cfg.Sync.ProbeAddr,
		ProbeTimeout: probeTimeout,
	}, store, nil, a.log.With(logx.String("svc", "sync")), a.bus)

	a.applyPlanner(cfg)
	return nil
}

func (a *App) applyPlanner(cfg *config.Config) {
	start := cfg.Planner.WorkingHoursStart
	if strings.TrimSpace(start) == "" {
		start = "09:00"
	}
	end := cfg.Planner.WorkingHoursEnd
	if strings.TrimSpace(end) == "" {
		end = "17:00"
	}
	slot := cfg.Planner.SlotMinutes
	if slot <= 0 {
		slot = 30
	}
	a.mu.Lock()
	a.planner = plan.WorkingHours{Start: start, End: end}
	a.slotMin = slot
	a.mu.Unlock()
}

// telegramConfig resolves the Telegram section, letting the token come
// from the environment so it can stay out of the config file.
func telegramConfig(cfg *config.Config) *telegram.Config {
	if cfg.Telegram == nil {
		return nil
	}
	token := cfg.Telegram.Token
	if env := os.Getenv("DAYPLAN_TELEGRAM_TOKEN"); env != "" {
		token = env
	}
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return &telegram.Config{Token: token, ChatID: cfg.Telegram.ChatID}
}

func (a *App) Start(ctx context.Context) error {
	a.notifySvc.Start(ctx)
	a.syncSvc.Start(ctx)

	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	updates := a.cfgMgr.Subscribe(1)

	a.watchWG.Add(2)
	go func() {
		defer a.watchWG.Done()
		_ = a.cfgMgr.Watch(wctx)
	}()
	go func() {
		defer a.watchWG.Done()
		for {
			select {
			case <-wctx.Done():
				return
			case cfg, ok := <-updates:
				if !ok {
					return
				}
				a.reload(cfg)
			}
		}
	}()

	a.log.Info("app started")
	return nil
}

// reload pushes a new config into the running services. Storage and
// transports are fixed at startup; everything else applies live.
func (a *App) reload(cfg *config.Config) {
	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	a.notifySvc.Apply(notify.Config{
		Enabled:    cfg.Notify.Enabled,
		RatePerSec: cfg.Notify.RatePerSec,
	})

	offset, err := config.ParseDurationOrDefault("reminder.default_offset", cfg.Reminder.DefaultOffset, 15*time.Minute)
	if err != nil {
		a.log.Warn("config reload: bad reminder offset", logx.Err(err))
	} else {
		a.reminderSvc.Apply(reminder.Config{
			Enabled:       cfg.Reminder.Enabled,
			DefaultOffset: offset,
		})
	}

	replayEvery, err := config.ParseDurationOrDefault("sync.replay_every", cfg.Sync.ReplayEvery, time.Minute)
	if err != nil {
		a.log.Warn("config reload: bad replay interval", logx.Err(err))
	} else {
		a.syncSvc.Apply(syncsvc.Config{
			Enabled:     cfg.Sync.Enabled,
			ReplayEvery: replayEvery,
			ProbeAddr:   cfg.Sync.ProbeAddr,
		})
	}

	a.applyPlanner(cfg)
	a.log.Info("config reloaded")
}

func (a *App) Stop(ctx context.Context) error {
	if a.watchCancel != nil {
		a.watchCancel()
		a.watchWG.Wait()
	}

	a.syncSvc.Stop(ctx)
	a.notifySvc.Stop(ctx)

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close failed", logx.Err(err))
		}
	}
	a.log.Info("app stopped")
	return a.logSvc.Close()
}

// Reminders exposes the reminder scheduler for callers embedding the app.
func (a *App) Reminders() *reminder.Service { return a.reminderSvc }

// Sync exposes the offline queue service.
func (a *App) Sync() *syncsvc.Service { return a.syncSvc }

// Bus exposes the in-process event bus.
func (a *App) Bus() eventbus.Bus { return a.bus }

// WorkingHours reports the planner bounds currently configured.
func (a *App) WorkingHours() (plan.WorkingHours, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.planner, a.slotMin
}
