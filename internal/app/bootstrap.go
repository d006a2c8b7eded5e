package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"lpool/internal/domain"
	"lpool/internal/engine"
	"lpool/internal/event"
	"lpool/internal/infra"
	"lpool/internal/infra/storage"
	"lpool/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage // nil when the journal is disabled
	Metrics    *infra.Metrics
	Pools      *service.PoolService
	Sequencers []*engine.Sequencer

	wg sync.WaitGroup
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads the configuration at path and wires every component.
func (b *Bootstrap) Initialize(path string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(path)
	if err != nil {
		return err // Let main handle the error
	}

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("Bootstrapping lpool...", slog.String("config", path))

	return b.InitializeWith(cfg)
}

// InitializeWith wires every component from an already loaded configuration.
func (b *Bootstrap) InitializeWith(cfg *infra.Config) error {
	b.Config = cfg
	b.Metrics = infra.NewMetrics()
	b.Pools = service.NewPoolService()
	event.Warmup()

	// 3. Initialize Storage (journal)
	var journal domain.Journal
	if cfg.Journal.Enabled {
		store, err := storage.NewStorage(cfg.Journal.Path)
		if err != nil {
			return err
		}
		b.Storage = store
		journal = store
		slog.Info("Journal initialized", slog.String("path", cfg.Journal.Path), slog.String("session", store.SessionID()))
	}

	// 4. One sequencer per pool
	if err := b.buildSequencers(cfg, journal); err != nil {
		b.Sequencers = nil
		b.closeStorage()
		return err
	}

	return nil
}

func (b *Bootstrap) buildSequencers(cfg *infra.Config, journal domain.Journal) error {
	for _, pc := range cfg.Pools {
		params, err := pc.Params()
		if err != nil {
			return fmt.Errorf("pool %s: %w", pc.Name, err)
		}
		pool, err := domain.NewLiquidityPool(params)
		if err != nil {
			return fmt.Errorf("pool %s: %w", pc.Name, err)
		}
		seq := engine.NewSequencer(pc.Name, pool, cfg.Engine.InboxSize, journal, b.Metrics, b.Pools.Observe)
		b.Sequencers = append(b.Sequencers, seq)
		slog.Info("Pool ready",
			slog.String("pool", pc.Name),
			slog.Int("precision", pc.Precision),
			slog.String("accounting", pool.Accounting().String()),
		)
	}

	return nil
}

// Start runs every sequencer until ctx ends.
func (b *Bootstrap) Start(ctx context.Context) {
	for _, seq := range b.Sequencers {
		b.wg.Add(1)
		go func(s *engine.Sequencer) {
			defer b.wg.Done()
			s.Run(ctx)
		}(seq)
	}
	slog.Info("Sequencers started", slog.Int("pools", len(b.Sequencers)))
}

// Sequencer returns the sequencer of the named pool.
func (b *Bootstrap) Sequencer(name string) (*engine.Sequencer, bool) {
	for _, s := range b.Sequencers {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Close waits for the sequencers to stop and releases the journal. The
// context given to Start must already be done.
func (b *Bootstrap) Close() error {
	b.wg.Wait()
	return b.closeStorage()
}

func (b *Bootstrap) closeStorage() error {
	if b.Storage == nil {
		return nil
	}
	err := b.Storage.Close()
	b.Storage = nil
	if err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}
