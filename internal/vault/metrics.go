// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Consumption reasons used as metric labels and log values.
const (
	reasonOneTime  = "one_time"
	reasonMaxViews = "max_views"
	reasonExpired  = "expired"
	reasonDeleted  = "deleted"
)

// # Lifecycle Metrics

var (
	vaultsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_created_total",
		Help: "Vaults created, by kind",
	}, []string{"kind"})

	vaultViewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_views_total",
		Help: "Counted views, by kind",
	}, []string{"kind"})

	vaultConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vault_consumed_total",
		Help: "Vaults removed from the read path, by reason",
	}, []string{"reason"})
)

// # Reclamation Metrics

var (
	reclaimRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_reclaim_runs_total",
		Help: "Completed reclamation runs",
	})

	reclaimSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_reclaim_skipped_total",
		Help: "Reclamation ticks dropped because a run was already active",
	})

	reclaimRecordsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_reclaim_records_deleted_total",
		Help: "Expired records removed by reclamation",
	})

	reclaimFilesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_reclaim_files_deleted_total",
		Help: "Blobs removed by reclamation, orphans included",
	})

	reclaimErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vault_reclaim_errors_total",
		Help: "Blob deletions that failed during reclamation",
	})

	reclaimDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vault_reclaim_duration_seconds",
		Help:    "Duration of reclamation runs in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// consumptionReason labels why a counted view ended a record.
func consumptionReason(record *Record) string {
	if record.OneTimeView {
		return reasonOneTime
	}
	return reasonMaxViews
}
