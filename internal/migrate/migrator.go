package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/eldermoor/eldermoor/internal/storage"
)

// State is one step of the cross-backend migration machine.
type State int

const (
	StateAwaitingTarget State = iota
	StateProvisioning
	StateVerifyingEmpty
	StateCopying
	StateSwapping
	StateDone
	StateCancelled
	StateFailed
)

var stateNames = map[State]string{
	StateAwaitingTarget: "awaiting-target",
	StateProvisioning:   "provisioning",
	StateVerifyingEmpty: "verifying-empty",
	StateCopying:        "copying",
	StateSwapping:       "swapping",
	StateDone:           "done",
	StateCancelled:      "cancelled",
	StateFailed:         "failed",
}

func (s State) String() string { return stateNames[s] }

// ErrTargetNotEmpty is the hard safety gate: a target backend that
// already holds records is never overwritten.
var ErrTargetNotEmpty = errors.New("target backend already contains records")

var errWrongState = errors.New("operation not valid in current migration state")

// Service is the live server as the migrator sees it: pausable, and
// able to report when all in-flight persistence work has completed.
type Service interface {
	Pause()
	Resume()
	Drained() bool
}

// ConfigWriter atomically rewrites the active backend configuration.
// It runs only after a fully successful copy.
type ConfigWriter interface {
	WriteActive(contentOpts, playerOpts storage.Options) error
}

// Migrator copies the whole dataset, content and player stores both,
// onto a freshly provisioned target backend, then swaps the active
// configuration. Any copy failure aborts the whole operation and
// leaves the prior backend untouched.
type Migrator struct {
	mu     sync.Mutex
	state  State
	copied int

	contentSrc storage.Store
	playerSrc  storage.Store

	contentDst storage.Store
	playerDst  storage.Store

	targetContent storage.Options
	targetPlayer  storage.Options

	svc          Service
	cfg          ConfigWriter
	pollInterval time.Duration
}

type MigratorOpt func(*Migrator)

// WithPollInterval adjusts the drain polling cadence. It stays
// sub-second per the drain contract.
func WithPollInterval(d time.Duration) MigratorOpt {
	return func(m *Migrator) {
		if d > 0 && d < time.Second {
			m.pollInterval = d
		}
	}
}

func NewMigrator(contentSrc, playerSrc storage.Store, svc Service, cfg ConfigWriter, opts ...MigratorOpt) *Migrator {
	m := &Migrator{
		state:        StateAwaitingTarget,
		contentSrc:   contentSrc,
		playerSrc:    playerSrc,
		svc:          svc,
		cfg:          cfg,
		pollInterval: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Migrator) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Migrator) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// SubmitTarget provisions the target backend from operator-supplied
// parameters and verifies it is empty. On connection failure or a
// non-empty target the machine returns to awaiting-target so the
// operator can retry or cancel.
func (m *Migrator) SubmitTarget(ctx context.Context, target storage.Options) error {
	if m.State() != StateAwaitingTarget {
		return errWrongState
	}
	m.setState(StateProvisioning)

	m.targetContent = target
	m.targetPlayer = DerivePlayerTarget(target)

	contentDst, err := storage.Open(ctx, m.targetContent, storage.PurposeContent)
	if err != nil {
		m.setState(StateAwaitingTarget)
		return err
	}
	playerDst, err := storage.Open(ctx, m.targetPlayer, storage.PurposePlayer)
	if err != nil {
		contentDst.Close(ctx)
		m.setState(StateAwaitingTarget)
		return err
	}
	m.contentDst = contentDst
	m.playerDst = playerDst

	if err := contentDst.ApplyMigrations(ctx); err != nil {
		m.abandonTarget(ctx, StateAwaitingTarget)
		return fmt.Errorf("provisioning content target: %w", err)
	}
	if err := playerDst.ApplyMigrations(ctx); err != nil {
		m.abandonTarget(ctx, StateAwaitingTarget)
		return fmt.Errorf("provisioning player target: %w", err)
	}

	m.setState(StateVerifyingEmpty)

	for _, dst := range []storage.Store{contentDst, playerDst} {
		empty, err := dst.IsEmpty(ctx)
		if err != nil {
			m.abandonTarget(ctx, StateAwaitingTarget)
			return err
		}
		if !empty {
			m.abandonTarget(ctx, StateAwaitingTarget)
			return ErrTargetNotEmpty
		}
	}

	m.setState(StateCopying)
	return nil
}

// Copy reads every record table from both source stores and restores
// them into the targets, one transaction per store. The service is
// paused for the duration so the copy is a consistent snapshot.
func (m *Migrator) Copy(ctx context.Context) error {
	if m.State() != StateCopying {
		return errWrongState
	}

	if m.svc != nil {
		m.svc.Pause()
	}

	if err := m.copyStore(ctx, m.contentSrc, m.contentDst, storage.PurposeContent); err != nil {
		m.abort(ctx)
		return err
	}
	if err := m.copyStore(ctx, m.playerSrc, m.playerDst, storage.PurposePlayer); err != nil {
		m.abort(ctx)
		return err
	}

	m.setState(StateSwapping)
	return nil
}

func (m *Migrator) copyStore(ctx context.Context, src, dst storage.Store, purpose storage.Purpose) error {
	dumps, err := src.DumpTables(ctx, storage.RecordTables(purpose))
	if err != nil {
		return fmt.Errorf("reading %s source: %w", purpose, err)
	}
	if err := dst.RestoreTables(ctx, dumps); err != nil {
		return fmt.Errorf("writing %s target: %w", purpose, err)
	}

	var total int
	for _, d := range dumps {
		total += len(d.Rows)
	}
	m.mu.Lock()
	m.copied += total
	m.mu.Unlock()

	slog.Info("copied store", "purpose", string(purpose), "tables", len(dumps), "rows", total)
	return nil
}

// CopiedRows reports the total row count across both stores so far.
func (m *Migrator) CopiedRows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copied
}

// Swap waits for the paused service to drain, rewrites the active
// configuration to the target parameters and releases the target
// connections. The configuration is only touched after a fully
// successful copy.
func (m *Migrator) Swap(ctx context.Context) error {
	if m.State() != StateSwapping {
		return errWrongState
	}

	if err := m.drain(ctx); err != nil {
		m.abort(ctx)
		return err
	}

	if err := m.cfg.WriteActive(m.targetContent, m.targetPlayer); err != nil {
		m.abort(ctx)
		return fmt.Errorf("rewriting active configuration: %w", err)
	}

	m.closeTargets(ctx)
	m.setState(StateDone)
	return nil
}

// drain polls the service until all in-flight persistence work has
// completed. There is no forced preemption.
func (m *Migrator) drain(ctx context.Context) error {
	if m.svc == nil {
		return nil
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for !m.svc.Drained() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Cancel aborts the migration before any copy has happened. Valid
// from awaiting-target and provisioning.
func (m *Migrator) Cancel(ctx context.Context) error {
	switch m.State() {
	case StateAwaitingTarget, StateProvisioning:
		m.abandonTarget(ctx, StateCancelled)
		return nil
	default:
		return errWrongState
	}
}

// abort tears the migration down after a copy or swap failure,
// resuming the service under the prior backend. Failed is a distinct
// terminal from Cancelled, which is reserved for operator abort.
func (m *Migrator) abort(ctx context.Context) {
	m.closeTargets(ctx)
	if m.svc != nil {
		m.svc.Resume()
	}
	m.setState(StateFailed)
}

func (m *Migrator) abandonTarget(ctx context.Context, next State) {
	m.closeTargets(ctx)
	m.setState(next)
}

func (m *Migrator) closeTargets(ctx context.Context) {
	if m.contentDst != nil {
		m.contentDst.Close(ctx)
		m.contentDst = nil
	}
	if m.playerDst != nil {
		m.playerDst.Close(ctx)
		m.playerDst = nil
	}
}

// DerivePlayerTarget maps the operator-supplied content target onto
// the paired player store: a "_player" suffix on the sqlite file name
// or the postgres database name.
func DerivePlayerTarget(target storage.Options) storage.Options {
	player := target
	switch target.Backend {
	case storage.BackendSqlite:
		if ext := extOf(target.Path); ext != "" {
			player.Path = strings.TrimSuffix(target.Path, ext) + "_player" + ext
		} else {
			player.Path = target.Path + "_player"
		}
	case storage.BackendPostgres:
		player.Database = target.Database + "_player"
	}
	return player
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}
