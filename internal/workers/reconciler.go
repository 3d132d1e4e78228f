package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sbilibin2017/gw-remit/internal/logger"
)

//go:generate mockgen -source=reconciler.go -destination=reconciler_mock.go -package=workers

// StaleReconciler escalates transactions stuck in flight.
type StaleReconciler interface {
	ReconcileStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// Reconciler periodically escalates stalled transactions, including those
// whose delayed steps were lost on restart.
type Reconciler struct {
	cron       *cron.Cron
	svc        StaleReconciler
	schedule   string
	staleAfter time.Duration
	timeout    time.Duration
}

// NewReconciler creates a reconciler running on a cron schedule such as "@every 1m".
func NewReconciler(svc StaleReconciler, schedule string, staleAfter time.Duration) *Reconciler {
	l := cronLogger{}
	return &Reconciler{
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		svc:        svc,
		schedule:   schedule,
		staleAfter: staleAfter,
		timeout:    time.Minute,
	}
}

// Start registers the reconcile job and starts the cron scheduler.
func (r *Reconciler) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.Run); err != nil {
		logger.Log.Errorw("failed to schedule reconcile job", "schedule", r.schedule, "error", err)
		return err
	}
	logger.Log.Infow("scheduled reconcile job", "schedule", r.schedule, "stale_after", r.staleAfter)
	r.cron.Start()
	return nil
}

// Run performs a single reconcile pass.
func (r *Reconciler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	n, err := r.svc.ReconcileStale(ctx, r.staleAfter)
	if err != nil {
		logger.Log.Errorw("reconcile job failed", "error", err)
		return
	}
	if n > 0 {
		logger.Log.Warnw("reconcile job escalated transactions", "count", n)
		return
	}
	logger.Log.Debugw("reconcile job found nothing stalled")
}

// Stop stops the scheduler and waits for a running job until ctx is done.
func (r *Reconciler) Stop(ctx context.Context) error {
	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.Errorw(msg, append(keysAndValues, "error", err)...)
}
