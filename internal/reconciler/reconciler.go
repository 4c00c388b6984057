package reconciler

import (
	"context"
	"time"

	"github.com/weiawesome/wes-io-conduit/internal/config"
	"github.com/weiawesome/wes-io-conduit/internal/projection"
	"github.com/weiawesome/wes-io-conduit/internal/store"
	pkglog "github.com/weiawesome/wes-io-conduit/pkg/log"
)

// Reconciler periodically recomputes the favorite counts of recently
// touched articles from the favorites relation.
type Reconciler struct {
	store      store.TouchStore
	projection projection.Projection
	cfg        config.ReconcilerConfig
	quit       chan struct{}
	doneCh     chan struct{}
}

// New creates a new Reconciler.
func New(store store.TouchStore, projection projection.Projection, cfg config.ReconcilerConfig) *Reconciler {
	return &Reconciler{
		store:      store,
		projection: projection,
		cfg:        cfg,
		quit:       make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start launches the reconciler in a background goroutine.
func (r *Reconciler) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop signals the reconciler to stop and returns immediately.
// Call Done() to wait for it to exit.
func (r *Reconciler) Stop() {
	close(r.quit)
}

// Done returns a channel that is closed when the reconciler has fully stopped.
func (r *Reconciler) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.doneCh)

	interval := r.cfg.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	l := pkglog.L()

	topN := int64(r.cfg.TopN)
	if topN <= 0 {
		topN = 100
	}

	// 1. Fetch the most touched articles
	touched, err := r.store.GetTopTouched(ctx, topN)
	if err != nil {
		l.Error().Err(err).Msg("reconciler: failed to get touched articles")
		return
	}

	if len(touched) == 0 {
		l.Debug().Msg("reconciler: nothing to reconcile")
		return
	}

	// 2. Recompute each count from the relation
	done := make([]store.Touched, 0, len(touched))
	for _, t := range touched {
		articleID := t.ArticleID
		count, err := r.projection.Recompute(ctx, articleID)
		if err != nil {
			l.Error().Err(err).Str(pkglog.FieldArticleID, articleID).Msg("reconciler: failed to recompute favorites count")
			continue
		}
		l.Debug().Str(pkglog.FieldArticleID, articleID).Int64(pkglog.FieldCount, count).Msg("reconciler: favorites count recomputed")
		done = append(done, t)
	}

	// 3. Drop the reconciled articles unless touched again meanwhile;
	// failures stay for the next cycle
	if err := r.store.ClearTouched(ctx, done...); err != nil {
		l.Error().Err(err).Msg("reconciler: failed to clear touched articles")
	}

	l.Info().Int(pkglog.FieldCount, len(done)).Msg("reconciler: reconciliation complete")
}
