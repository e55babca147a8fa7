package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pixil98/go-service"

	"github.com/eldermoor/eldermoor/internal/console"
	"github.com/eldermoor/eldermoor/internal/content"
	"github.com/eldermoor/eldermoor/internal/driver"
	"github.com/eldermoor/eldermoor/internal/gamedata"
	"github.com/eldermoor/eldermoor/internal/messaging"
	"github.com/eldermoor/eldermoor/internal/migrate"
	"github.com/eldermoor/eldermoor/internal/storage"
	"github.com/eldermoor/eldermoor/internal/topology"
	"github.com/eldermoor/eldermoor/internal/worker"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	ctx := context.Background()
	stdio := console.Stdio()

	// Messaging bus for the outbound content/topology notifications.
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	notifier := messaging.NewNotifier(natsServer)

	// Open all configured stores and bring their schemas up to date.
	contentStore, err := cfg.Database.openContent(ctx)
	if err != nil {
		return nil, err
	}
	playerStore, err := cfg.Database.openPlayer(ctx)
	if err != nil {
		return nil, err
	}
	loggingStore, err := cfg.Database.openLogging(ctx)
	if err != nil {
		return nil, err
	}

	stores := []storage.Store{contentStore, playerStore}
	if loggingStore != nil {
		stores = append(stores, loggingStore)
	}

	if err := confirmMigrations(ctx, stdio, &cfg.Console, stores); err != nil {
		return nil, err
	}
	for _, st := range stores {
		if err := st.ApplyMigrations(ctx); err != nil {
			return nil, fmt.Errorf("applying %s migrations: %w", st.Purpose(), err)
		}
	}

	// Populate every content cache. A load failure is fatal; the
	// server never runs against a partial content set.
	reg := content.NewRegistry()
	loader := gamedata.NewLoader(reg, contentStore)
	if err := loader.LoadAll(ctx); err != nil {
		return nil, fmt.Errorf("loading game data: %w", err)
	}

	pool, err := cfg.Pool.buildPool()
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}

	mgrOpts := []gamedata.ManagerOpt{
		gamedata.WithNotifier(notifier),
		gamedata.WithOffloader(pool),
	}
	if loggingStore != nil {
		mgrOpts = append(mgrOpts, gamedata.WithAuditStore(loggingStore))
	}
	mgr := gamedata.NewManager(reg, contentStore, mgrOpts...)

	topo := topology.NewManager(reg.Maps(), mgr, notifier)
	mgr.SetTopology(topo)

	var driverOpts []driver.DriverOpt
	if cfg.TickInterval != "" {
		d, err := time.ParseDuration(cfg.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing tick_interval: %w", err)
		}
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}
	drv := driver.NewDriver([]driver.Manager{topo, mgr}, driverOpts...)

	svc := &liveService{drv: drv, pool: pool}
	runMigration := func(ctx context.Context, rw io.ReadWriter) error {
		m := migrate.NewMigrator(contentStore, playerStore, svc,
			&migrate.FileConfigWriter{Path: cfg.Database.configFile()})
		return migrate.RunConsole(ctx, m, rw)
	}

	return service.WorkerList{
		"nats":    natsServer,
		"driver":  drv,
		"console": console.NewAdmin(stdio, runMigration),
	}, nil
}

// confirmMigrations is the startup operator gate: non-baseline
// pending migrations are listed and only applied once the operator
// types the ready token. The exit token aborts startup.
func confirmMigrations(ctx context.Context, rw io.ReadWriter, cfg *ConsoleConfig, stores []storage.Store) error {
	var pending []string
	baselineOnly := true
	for _, st := range stores {
		names, err := st.PendingMigrations(ctx)
		if err != nil {
			return fmt.Errorf("checking %s migrations: %w", st.Purpose(), err)
		}
		for _, name := range names {
			pending = append(pending, fmt.Sprintf("%s: %s", st.Purpose(), name))
			if name != storage.BaselineMigration {
				baselineOnly = false
			}
		}
	}

	if len(pending) == 0 || baselineOnly {
		return nil
	}

	fmt.Fprintln(rw, "The following schema migrations are pending:")
	for _, name := range pending {
		fmt.Fprintf(rw, "  %s\n", name)
	}

	ready, exit := cfg.readyToken(), cfg.exitToken()
	answer, err := console.Prompt(rw,
		fmt.Sprintf("Type %q to apply them, or %q to abort: ", ready, exit),
		console.WithValidator(func(s string) (bool, string) {
			if s == ready || s == exit {
				return true, ""
			}
			return false, fmt.Sprintf("Type %q or %q.\n", ready, exit)
		}))
	if err != nil {
		return err
	}
	if answer == exit {
		return console.ErrOperatorExit
	}
	return nil
}

// liveService adapts the tick driver and the persistence pool to the
// migrator's pause/drain contract.
type liveService struct {
	drv  *driver.Driver
	pool *worker.Pool
}

func (s *liveService) Pause()  { s.drv.Pause() }
func (s *liveService) Resume() { s.drv.Resume() }

func (s *liveService) Drained() bool {
	return s.drv.Quiesced() && s.pool.Pending() == 0
}
