package worker

import (
	"context"
	"log"
	"time"

	"github.com/globaltierra/crm-api/internal/entity"
	"github.com/globaltierra/crm-api/internal/infra/http/middleware"
	"github.com/globaltierra/crm-api/internal/usecase"
)

// SnapshotWorker recomputes and republishes the KPI snapshot on a
// fixed interval. A failed run is logged and skipped; the previously
// published snapshot stays current.
type SnapshotWorker struct {
	aggregator *usecase.ComputeSnapshotUseCase
	publisher  usecase.SnapshotPublisherInterface

	lookback time.Duration
	bucket   entity.BucketSize
	interval time.Duration
}

func NewSnapshotWorker(
	aggregator *usecase.ComputeSnapshotUseCase,
	publisher usecase.SnapshotPublisherInterface,
	lookback time.Duration,
	bucket entity.BucketSize,
	interval time.Duration,
) *SnapshotWorker {
	return &SnapshotWorker{
		aggregator: aggregator,
		publisher:  publisher,
		lookback:   lookback,
		bucket:     bucket,
		interval:   interval,
	}
}

func (w *SnapshotWorker) Start(ctx context.Context) {
	log.Printf("🕒 KPI snapshot worker started (every %s, %s over trailing %s)", w.interval, w.bucket, w.lookback)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("KPI snapshot worker stopped")
			return
		case <-ticker.C:
			w.Refresh(ctx)
		}
	}
}

// Refresh runs one compute-and-publish cycle. It is also invoked by
// the on-demand recompute endpoint.
func (w *SnapshotWorker) Refresh(ctx context.Context) (*entity.KPISnapshot, error) {
	now := time.Now().UTC()
	snap, err := w.aggregator.Execute(ctx, usecase.SnapshotRange{
		From:   now.Add(-w.lookback),
		To:     now,
		Bucket: w.bucket,
	})
	if err != nil {
		log.Printf("snapshot computation failed, keeping previous snapshot: %v", err)
		return nil, err
	}

	if err := w.publisher.Publish(ctx, snap); err != nil {
		log.Printf("snapshot publish failed, keeping previous snapshot: %v", err)
		return nil, err
	}

	middleware.RecordSnapshotPublished()
	return snap, nil
}
