// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taibuivan/vaultlink/internal/platform/blob"
	"github.com/taibuivan/vaultlink/internal/platform/constants"
	"github.com/taibuivan/vaultlink/pkg/slice"
)

// ErrReclaimInProgress is returned by RunOnce when another run holds the guard.
var ErrReclaimInProgress = errors.New("vault: reclamation already in progress")

// maxReclaimBatches bounds one run so a backlog cannot pin it forever.
const maxReclaimBatches = 100

// ReclaimOptions configures the [Reclaimer].
type ReclaimOptions struct {
	// Interval between runs.
	Interval time.Duration
	// SweepOrphans enables removal of blobs no record references.
	SweepOrphans bool
	// OrphanGrace protects blobs whose record insert may still be in flight.
	OrphanGrace time.Duration
	// BatchSize bounds how many expired records are loaded at once.
	BatchSize int
}

// ReclaimResult is the outcome of one run.
type ReclaimResult struct {
	// RecordsDeleted counts removed expired records.
	RecordsDeleted int64
	// FilesDeleted counts removed blobs of expired records.
	FilesDeleted int
	// FilesMissing counts blobs that were already gone.
	FilesMissing int
	// FileErrors counts blobs that could not be removed.
	FileErrors int
	// OrphansDeleted counts unreferenced blobs removed by the sweep.
	OrphansDeleted int
	// Duration of the run.
	Duration time.Duration
}

// Reclaimer periodically deletes expired records and their blobs.
//
// Read paths already reclaim what they touch; the Reclaimer collects records
// nobody reads again. Overlapping runs are skipped, never queued.
type Reclaimer struct {
	repository Repository
	blobs      blob.Store
	lease      Lease
	options    ReclaimOptions
	logger     *slog.Logger
	now        func() time.Time

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewReclaimer creates a Reclaimer. lease may be nil for single-replica deployments.
func NewReclaimer(repository Repository, blobs blob.Store, lease Lease, options ReclaimOptions, logger *slog.Logger) *Reclaimer {
	if options.BatchSize <= 0 {
		options.BatchSize = constants.ReclaimBatchSize
	}
	return &Reclaimer{
		repository: repository,
		blobs:      blobs,
		lease:      lease,
		options:    options,
		logger:     logger.With(slog.String("component", "reclaimer")),
		now:        time.Now,
	}
}

// Start runs once immediately, then on every interval until Stop or ctx cancellation.
func (reclaimer *Reclaimer) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	reclaimer.cancel = cancel

	reclaimer.wg.Add(1)
	go reclaimer.run(loopCtx)

	reclaimer.logger.Info("reclaimer_started",
		slog.Duration("interval", reclaimer.options.Interval),
		slog.Bool("sweep_orphans", reclaimer.options.SweepOrphans),
	)
}

// Stop cancels the loop and waits for in-flight runs to return.
func (reclaimer *Reclaimer) Stop() {
	if reclaimer.cancel != nil {
		reclaimer.cancel()
	}
	reclaimer.wg.Wait()
	reclaimer.logger.Info("reclaimer_stopped")
}

func (reclaimer *Reclaimer) run(ctx context.Context) {
	defer reclaimer.wg.Done()

	reclaimer.tick(ctx)

	ticker := time.NewTicker(reclaimer.options.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Each tick runs on its own goroutine so a slow run drops later ticks.
			reclaimer.wg.Add(1)
			go func() {
				defer reclaimer.wg.Done()
				reclaimer.tick(ctx)
			}()
		}
	}
}

// tick performs one bounded run and logs its failure. Nothing escapes the loop.
func (reclaimer *Reclaimer) tick(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, constants.ReclaimTimeout)
	defer cancel()

	if _, err := reclaimer.RunOnce(runCtx); err != nil {
		if errors.Is(err, ErrReclaimInProgress) {
			reclaimer.logger.Debug("reclaim_tick_skipped")
			return
		}
		reclaimer.logger.Error("reclaim_run_failed", slog.Any("error", err))
	}
}

/*
RunOnce performs a single reclamation pass.

 1. Guard: skip when a run is active here, or another replica holds the lease.
 2. Expired records: delete each blob (absence is fine), then the records.
 3. Orphans: optionally delete old blobs that no record references.

A failing blob deletion is counted and logged but never blocks the batch.

Returns:
  - *ReclaimResult: Counters for this run
  - err: ErrReclaimInProgress or a storage failure
*/
func (reclaimer *Reclaimer) RunOnce(ctx context.Context) (*ReclaimResult, error) {

	// 1. Overlap guard
	if !reclaimer.running.CompareAndSwap(false, true) {
		reclaimSkippedTotal.Inc()
		return nil, ErrReclaimInProgress
	}
	defer reclaimer.running.Store(false)

	if reclaimer.lease != nil {
		release, acquired, err := reclaimer.lease.Acquire(ctx)
		switch {
		case err != nil:
			// The in-process guard still holds; proceed without cross-replica exclusion.
			reclaimer.logger.Warn("reclaim_lease_unavailable", slog.Any("error", err))
		case !acquired:
			reclaimSkippedTotal.Inc()
			return nil, ErrReclaimInProgress
		default:
			defer release(context.WithoutCancel(ctx))
		}
	}

	start := time.Now()
	result := &ReclaimResult{}

	// 2. Expired records
	if err := reclaimer.reclaimExpired(ctx, result); err != nil {
		return nil, err
	}

	// 3. Orphaned blobs
	if reclaimer.options.SweepOrphans {
		if err := reclaimer.sweepOrphans(ctx, result); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)

	reclaimRunsTotal.Inc()
	reclaimRecordsDeletedTotal.Add(float64(result.RecordsDeleted))
	reclaimFilesDeletedTotal.Add(float64(result.FilesDeleted + result.OrphansDeleted))
	reclaimErrorsTotal.Add(float64(result.FileErrors))
	reclaimDurationSeconds.Observe(result.Duration.Seconds())
	vaultConsumedTotal.WithLabelValues(reasonExpired).Add(float64(result.RecordsDeleted))

	level := slog.LevelDebug
	if result.RecordsDeleted > 0 || result.OrphansDeleted > 0 || result.FileErrors > 0 {
		level = slog.LevelInfo
	}
	reclaimer.logger.Log(ctx, level, "reclaim_run_completed",
		slog.Int64("records_deleted", result.RecordsDeleted),
		slog.Int("files_deleted", result.FilesDeleted),
		slog.Int("files_missing", result.FilesMissing),
		slog.Int("file_errors", result.FileErrors),
		slog.Int("orphans_deleted", result.OrphansDeleted),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

// reclaimExpired drains expired records batch by batch.
func (reclaimer *Reclaimer) reclaimExpired(ctx context.Context, result *ReclaimResult) error {
	now := reclaimer.now()

	for range maxReclaimBatches {
		if err := ctx.Err(); err != nil {
			return err
		}

		expired, err := reclaimer.repository.ListExpired(ctx, now, reclaimer.options.BatchSize)
		if err != nil {
			return fmt.Errorf("reclaim_list_expired_failed: %w", err)
		}
		if len(expired) == 0 {
			return nil
		}

		ids := make([]string, 0, len(expired))
		for _, record := range expired {
			ids = append(ids, record.ID)
			if ref := record.StorageRef(); ref != "" {
				reclaimer.deleteBlob(ctx, record.ID, ref, result)
			}
		}

		deleted, err := reclaimer.repository.DeleteByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("reclaim_delete_records_failed: %w", err)
		}
		result.RecordsDeleted += deleted

		if len(expired) < reclaimer.options.BatchSize {
			return nil
		}
	}

	reclaimer.logger.Warn("reclaim_batch_limit_reached", slog.Int("batches", maxReclaimBatches))
	return nil
}

func (reclaimer *Reclaimer) deleteBlob(ctx context.Context, vaultID, ref string, result *ReclaimResult) {
	err := reclaimer.blobs.Delete(ctx, ref)
	switch {
	case err == nil:
		result.FilesDeleted++
	case blob.IsNotExist(err):
		result.FilesMissing++
	default:
		result.FileErrors++
		reclaimer.logger.Error("reclaim_blob_delete_failed",
			slog.String("vault_id", vaultID),
			slog.String("storage_ref", ref),
			slog.Any("error", err),
		)
	}
}

// sweepOrphans removes blobs older than the grace period that no record references.
func (reclaimer *Reclaimer) sweepOrphans(ctx context.Context, result *ReclaimResult) error {
	objects, err := reclaimer.blobs.List(ctx)
	if err != nil {
		return fmt.Errorf("reclaim_list_blobs_failed: %w", err)
	}

	cutoff := reclaimer.now().Add(-reclaimer.options.OrphanGrace)
	settled := slice.Filter(objects, func(object blob.Object) bool { return object.ModifiedAt.Before(cutoff) })
	candidates := slice.Map(settled, func(object blob.Object) string { return object.Key })
	if len(candidates) == 0 {
		return nil
	}

	referenced, err := reclaimer.repository.ReferencedStorageRefs(ctx, candidates)
	if err != nil {
		return fmt.Errorf("reclaim_lookup_refs_failed: %w", err)
	}

	for _, key := range candidates {
		if referenced[key] {
			continue
		}

		err := reclaimer.blobs.Delete(ctx, key)
		if err != nil && !blob.IsNotExist(err) {
			result.FileErrors++
			reclaimer.logger.Error("reclaim_orphan_delete_failed",
				slog.String("storage_ref", key),
				slog.Any("error", err),
			)
			continue
		}

		result.OrphansDeleted++
		reclaimer.logger.Debug("reclaim_orphan_deleted", slog.String("storage_ref", key))
	}

	return nil
}
