// Package syncjob runs one batch: every endpoint in stored order, one at a
// time, each with its own connection. A failing endpoint is recorded and the
// batch moves on; cancellation ends the batch.
package syncjob

import (
	"context"
	"errors"
	"fmt"
	"ftpsched/internal/eventlog"
	"ftpsched/internal/logger"
	"ftpsched/internal/model"
	"ftpsched/internal/pathtmpl"
	"ftpsched/internal/transfer"
	"ftpsched/internal/util"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Observer is told about every outcome as soon as it is known.
type Observer interface {
	Observe(outcome model.Outcome)
}

type ObserverFunc func(outcome model.Outcome)

func (f ObserverFunc) Observe(outcome model.Outcome) {
	f(outcome)
}

type Options struct {
	Credentials    transfer.Credentials
	Mode           transfer.Mode
	ClearSinkOnRun bool
	Observers      []Observer
}

type Job struct {
	dialer transfer.Dialer
	sink   eventlog.Sink
	opts   Options
	now    func() time.Time
}

type Report struct {
	At        time.Time       `json:"at"`
	Outcomes  []model.Outcome `json:"outcomes"`
	Cancelled bool            `json:"cancelled"`
}

func (r Report) Count(status model.OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func New(dialer transfer.Dialer, sink eventlog.Sink, opts Options) *Job {
	return &Job{dialer: dialer, sink: sink, opts: opts, now: time.Now}
}

// Run syncs endpoints against the date at. Disabled endpoints are reported as
// skipped without touching the sink. Once ctx is cancelled the current
// endpoint is reported as cancelled and no later endpoint is attempted.
func (j *Job) Run(ctx context.Context, endpoints []model.Endpoint, at time.Time) Report {
	report := Report{At: at, Outcomes: make([]model.Outcome, 0, len(endpoints))}

	if j.opts.ClearSinkOnRun {
		j.sink.Clear()
	}
	j.sink.Append(fmt.Sprintf("Sync started for %s", at.Format(time.DateOnly)))

	logger.Log.Info("batch started",
		zap.Time("at", at),
		zap.Int("endpoints", len(endpoints)))

	for _, ep := range endpoints {
		if !ep.Enabled {
			j.record(&report, model.Outcome{
				Endpoint:   ep,
				Status:     model.OutcomeSkipped,
				Reason:     "disabled",
				StartedAt:  j.now(),
				FinishedAt: j.now(),
			})
			continue
		}

		if ctx.Err() != nil {
			j.sink.Append("Cancelled")
			j.record(&report, model.Outcome{
				Endpoint:   ep,
				Status:     model.OutcomeCancelled,
				Reason:     "cancelled before start",
				StartedAt:  j.now(),
				FinishedAt: j.now(),
			})
			report.Cancelled = true
			break
		}

		outcome := j.syncEndpoint(ctx, ep, at)
		j.record(&report, outcome)

		if outcome.Status == model.OutcomeCancelled {
			report.Cancelled = true
			break
		}
	}

	if report.Cancelled {
		logger.Log.Info("batch cancelled",
			zap.Int("completed", len(report.Outcomes)-1))
		return report
	}

	j.sink.Append(fmt.Sprintf("Sync finished: %d succeeded, %d failed, %d skipped",
		report.Count(model.OutcomeSuccess),
		report.Count(model.OutcomeFailed),
		report.Count(model.OutcomeSkipped)))

	logger.Log.Info("batch finished",
		zap.Int("succeeded", report.Count(model.OutcomeSuccess)),
		zap.Int("failed", report.Count(model.OutcomeFailed)))

	return report
}

func (j *Job) syncEndpoint(ctx context.Context, ep model.Endpoint, at time.Time) model.Outcome {
	outcome := model.Outcome{Endpoint: ep, StartedAt: j.now()}
	finish := func(status model.OutcomeStatus, err error) model.Outcome {
		outcome.Status = status
		if err != nil {
			outcome.Reason = err.Error()
		}
		outcome.FinishedAt = j.now()
		return outcome
	}

	j.sink.Append(fmt.Sprintf("Started download for %s", ep.Addr()))

	remotePath := pathtmpl.Resolve(ep.RemotePath, at)
	localRoot := pathtmpl.Resolve(ep.LocalPath, at)
	outcome.Source = remotePath

	conn, err := j.dialer.Dial(ctx, transfer.TargetOf(ep), j.opts.Credentials)
	if err != nil {
		return j.fail(ctx, ep, finish, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Log.Debug("close failed",
				zap.String("addr", ep.Addr()),
				zap.Error(err))
		}
	}()

	isDir, err := conn.IsDir(ctx, remotePath)
	if err != nil {
		return j.fail(ctx, ep, finish, err)
	}

	if err := util.EnsureDir(localRoot); err != nil {
		return j.fail(ctx, ep, finish, &transfer.TransferError{Path: localRoot, Err: err})
	}

	kind := "file"
	var stats model.TransferStats
	if isDir {
		kind = "dir"
		outcome.Destination = localRoot
		j.sink.Append(fmt.Sprintf("Downloading dir %s", remotePath))
		stats, err = conn.SyncDir(ctx, localRoot, remotePath, j.opts.Mode)
	} else {
		outcome.Destination = filepath.Join(localRoot, path.Base(remotePath))
		j.sink.Append(fmt.Sprintf("Downloading file %s", remotePath))
		stats, err = conn.DownloadFile(ctx, outcome.Destination, remotePath, j.opts.Mode)
	}
	outcome.Stats = stats
	if err != nil {
		return j.fail(ctx, ep, finish, err)
	}

	j.sink.Append(fmt.Sprintf("Successfully downloaded %s %s to %s (%d transferred, %d unchanged)",
		kind, remotePath, outcome.Destination, stats.Transferred, stats.Unchanged))

	return finish(model.OutcomeSuccess, nil)
}

func (j *Job) fail(ctx context.Context, ep model.Endpoint, finish func(model.OutcomeStatus, error) model.Outcome, err error) model.Outcome {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		j.sink.Append("Cancelled")
		return finish(model.OutcomeCancelled, context.Canceled)
	}

	j.sink.Append(fmt.Sprintf("Error %s: %v", ep.Addr(), err))
	return finish(model.OutcomeFailed, err)
}

func (j *Job) record(report *Report, outcome model.Outcome) {
	report.Outcomes = append(report.Outcomes, outcome)

	fields := []zap.Field{
		zap.String("endpoint", outcome.Endpoint.ID),
		zap.String("addr", outcome.Endpoint.Addr()),
		zap.String("status", string(outcome.Status)),
		zap.Duration("took", outcome.FinishedAt.Sub(outcome.StartedAt)),
	}
	switch outcome.Status {
	case model.OutcomeFailed:
		logger.Log.Warn("endpoint failed", append(fields, zap.String("reason", outcome.Reason))...)
	case model.OutcomeSkipped:
		logger.Log.Debug("endpoint skipped", fields...)
	default:
		logger.Log.Info("endpoint finished", append(fields,
			zap.Int("transferred", outcome.Stats.Transferred),
			zap.Int("unchanged", outcome.Stats.Unchanged),
			zap.Int64("bytes", outcome.Stats.Bytes))...)
	}

	for _, o := range j.opts.Observers {
		o.Observe(outcome)
	}
}
