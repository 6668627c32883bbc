package daemon

import (
	"context"
	"errors"
	"fmt"
	"ftpsched/internal/config"
	"ftpsched/internal/eventlog"
	"ftpsched/internal/logger"
	"ftpsched/internal/metrics"
	"ftpsched/internal/model"
	"ftpsched/internal/repository"
	"ftpsched/internal/scheduler"
	"ftpsched/internal/state"
	"ftpsched/internal/store"
	"ftpsched/internal/syncjob"
	"ftpsched/internal/transfer"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrBusy             = errors.New("a sync batch is already running")
	ErrSchedulerRunning = errors.New("scheduler is running, stop it before syncing manually")
	ErrNoBatch          = errors.New("no sync batch is running")
)

// HistoryStore records endpoint outcomes and serves them back.
type HistoryStore interface {
	Save(outcome model.Outcome) error
	GetRecent(limit int) ([]model.History, error)
	GetFailed() ([]model.History, error)
	GetByEndpoint(endpointID string, limit int) ([]model.History, error)
	GetStats() (repository.Stats, error)
}

type Options struct {
	// Dialer defaults to a transfer.NetDialer built from the config.
	Dialer  transfer.Dialer
	Clock   scheduler.Clock
	History HistoryStore
}

// Session owns everything a running daemon needs: the endpoint store and its
// state file, the scheduler, the sync job and the event sinks.
type Session struct {
	cfg       *config.Config
	file      *state.File
	store     *store.Store
	watcher   *state.Watcher
	scheduler *scheduler.Scheduler
	job       *syncjob.Job
	fileSink  *eventlog.FileSink
	ring      *eventlog.Ring
	metrics   *metrics.Metrics
	history   HistoryStore

	// batchSem admits one batch at a time across scheduled and manual runs.
	batchSem chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu         sync.RWMutex
	batch      *BatchState
	lastReport *syncjob.Report
}

func NewSession(cfg *config.Config, opts Options) (*Session, error) {
	file := state.NewFile(cfg.StatePath)
	st, err := file.Load()
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		file:     file,
		store:    store.New(file, store.Defaults{LocalPath: cfg.DefaultLocalRoot}),
		ring:     eventlog.NewRing(cfg.LogRingSize),
		metrics:  metrics.New(),
		history:  opts.History,
		batchSem: make(chan struct{}, 1),
	}

	if err := s.store.Replace(st); err != nil {
		return nil, fmt.Errorf("failed to load state %s: %w", cfg.StatePath, err)
	}

	s.fileSink, err = eventlog.NewFileSink(s.logPathOf(st))
	if err != nil {
		return nil, err
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = &transfer.NetDialer{
			Timeout:        cfg.ConnectTimeout,
			KnownHostsPath: cfg.KnownHostsPath,
			Mirror: transfer.MirrorOptions{
				IgnoreList: cfg.IgnoreList,
				Resolver:   transfer.NewResolver(cfg.ConflictStrategy),
			},
		}
	}

	s.job = syncjob.New(dialer, eventlog.Multi(s.fileSink, s.ring), syncjob.Options{
		Credentials:    transfer.Credentials{Username: cfg.Username, Password: cfg.Password},
		Mode:           cfg.Mode(),
		ClearSinkOnRun: cfg.LogClearOnRun,
		Observers:      []syncjob.Observer{s},
	})

	s.scheduler = scheduler.New(s.store.ScheduleTime, s.runScheduled, scheduler.Options{Clock: opts.Clock})
	s.ctx, s.cancel = context.WithCancel(context.Background())

	return s, nil
}

// Start begins watching the state file for external edits and, when
// configured, starts the scheduler.
func (s *Session) Start() error {
	w, err := state.NewWatcher(s.file, s.reload)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	s.watcher = w

	if s.cfg.AutostartScheduler {
		s.StartScheduler()
	}

	logger.Log.Info("session started",
		zap.String("state", s.file.Path()),
		zap.Int("endpoints", len(s.store.Snapshot())),
		zap.String("schedule", s.store.ScheduleTime().String()))
	return nil
}

// Close stops the scheduler, cancels a manual batch and waits for it.
func (s *Session) Close() error {
	s.scheduler.Stop()
	s.cancel()
	s.wg.Wait()

	if s.watcher != nil {
		s.watcher.Stop()
	}

	return s.fileSink.Close()
}

func (s *Session) Store() *store.Store {
	return s.store
}

func (s *Session) Metrics() *metrics.Metrics {
	return s.metrics
}

func (s *Session) StartScheduler() {
	s.scheduler.Start()
	s.metrics.SetSchedulerRunning(true)
	s.ring.Append(fmt.Sprintf("Scheduler started, next sync at %s", s.store.ScheduleTime()))
}

func (s *Session) StopScheduler() {
	s.scheduler.Stop()
	s.metrics.SetSchedulerRunning(false)
	s.ring.Append("Scheduler stopped")
}

func (s *Session) SchedulerRunning() bool {
	return s.scheduler.Running()
}

// StartManualSync runs one batch in the background. It is refused while the
// scheduler is started or another batch is in flight.
func (s *Session) StartManualSync() error {
	if s.scheduler.Running() {
		return ErrSchedulerRunning
	}
	if !s.tryAcquire() {
		return ErrBusy
	}

	s.wg.Go(func() {
		defer s.release()
		s.execute(s.ctx, TriggerManual, time.Now())
	})

	return nil
}

// SyncNow runs one batch and waits for its report.
func (s *Session) SyncNow(ctx context.Context) (syncjob.Report, error) {
	if s.scheduler.Running() {
		return syncjob.Report{}, ErrSchedulerRunning
	}
	if !s.tryAcquire() {
		return syncjob.Report{}, ErrBusy
	}
	defer s.release()

	return s.execute(ctx, TriggerManual, time.Now()), nil
}

// CancelSync cancels the batch in flight, whoever started it. A cancelled
// scheduled batch is not retried the same day.
func (s *Session) CancelSync() error {
	s.mu.RLock()
	batch := s.batch
	s.mu.RUnlock()

	if batch == nil {
		return ErrNoBatch
	}

	batch.Cancel()
	return nil
}

func (s *Session) runScheduled(ctx context.Context, at time.Time) {
	select {
	case s.batchSem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer s.release()

	s.execute(ctx, TriggerSchedule, at)
}

func (s *Session) execute(ctx context.Context, trigger Trigger, at time.Time) syncjob.Report {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	endpoints := s.store.Snapshot()
	batch := NewBatchState(trigger, len(endpoints), cancel)

	s.mu.Lock()
	s.batch = batch
	s.mu.Unlock()

	report := s.job.Run(ctx, endpoints, at)
	s.metrics.BatchFinished(string(trigger), report.Cancelled, time.Since(batch.StartedAt))

	s.mu.Lock()
	s.batch = nil
	s.lastReport = &report
	s.mu.Unlock()

	return report
}

func (s *Session) tryAcquire() bool {
	select {
	case s.batchSem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Session) release() {
	<-s.batchSem
}

// Observe receives every endpoint outcome of every batch.
func (s *Session) Observe(outcome model.Outcome) {
	s.metrics.Observe(outcome)

	s.mu.RLock()
	batch := s.batch
	s.mu.RUnlock()
	if batch != nil {
		batch.RecordOutcome()
	}

	if s.history == nil {
		return
	}
	if err := s.history.Save(outcome); err != nil {
		logger.Log.Warn("failed to save history",
			zap.String("endpoint", outcome.Endpoint.ID),
			zap.Error(err))
	}
}

type HistoryQuery struct {
	Limit      int
	EndpointID string
	FailedOnly bool
}

func (s *Session) History(q HistoryQuery) ([]model.History, error) {
	if s.history == nil {
		return []model.History{}, nil
	}

	var (
		histories []model.History
		err       error
	)
	switch {
	case q.FailedOnly:
		histories, err = s.history.GetFailed()
		if err == nil && q.EndpointID != "" {
			histories = slices.DeleteFunc(histories, func(h model.History) bool {
				return h.EndpointID != q.EndpointID
			})
		}
	case q.EndpointID != "":
		histories, err = s.history.GetByEndpoint(q.EndpointID, q.Limit)
	default:
		histories, err = s.history.GetRecent(q.Limit)
	}
	if err != nil {
		return nil, err
	}

	if q.Limit > 0 && len(histories) > q.Limit {
		histories = histories[:q.Limit]
	}
	return histories, nil
}

func (s *Session) HistoryStats() (repository.Stats, error) {
	if s.history == nil {
		return repository.Stats{}, nil
	}

	return s.history.GetStats()
}

type Status struct {
	Scheduler  model.SchedulerSnapshot `json:"scheduler"`
	Batch      *BatchSnapshot          `json:"batch,omitempty"`
	LastReport *syncjob.Report         `json:"last_report,omitempty"`
	Endpoints  int                     `json:"endpoints"`
	StatePath  string                  `json:"state_path"`
	LogPath    string                  `json:"log_path"`
}

func (s *Session) Status() Status {
	st := Status{
		Scheduler: s.scheduler.Status(),
		Endpoints: len(s.store.Snapshot()),
		StatePath: s.file.Path(),
		LogPath:   s.fileSink.Path(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.batch != nil {
		st.Batch = new(s.batch.Snapshot())
	}
	st.LastReport = s.lastReport
	return st
}

func (s *Session) LogLines() []eventlog.Line {
	return s.ring.Lines()
}

func (s *Session) ClearLog() {
	s.fileSink.Clear()
	s.ring.Clear()
}

// SetLogPath moves the event log to path and persists the choice. The old
// file is kept if persisting fails.
func (s *Session) SetLogPath(path string) error {
	if path == "" {
		return &store.ValidationError{Field: "log_path", Value: `""`, Reason: "must not be empty"}
	}

	previous := s.fileSink.Path()
	if err := s.fileSink.SetPath(path); err != nil {
		return err
	}

	if err := s.store.SetLogPath(path); err != nil {
		if restoreErr := s.fileSink.SetPath(previous); restoreErr != nil {
			logger.Log.Warn("failed to restore event log path",
				zap.String("path", previous),
				zap.Error(restoreErr))
		}
		return err
	}

	logger.Log.Info("event log moved",
		zap.String("from", previous),
		zap.String("to", path))
	return nil
}

func (s *Session) reload(st model.State) {
	if err := s.store.Replace(st); err != nil {
		logger.Log.Warn("rejected external state edit",
			zap.Error(err))
		return
	}

	if path := s.logPathOf(st); path != s.fileSink.Path() {
		if err := s.fileSink.SetPath(path); err != nil {
			logger.Log.Warn("failed to switch event log",
				zap.String("path", path),
				zap.Error(err))
		}
	}
}

func (s *Session) logPathOf(st model.State) string {
	if st.LogPath != "" {
		return st.LogPath
	}

	return s.cfg.LogPath
}
