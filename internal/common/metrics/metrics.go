package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_worker_jobs_completed_total",
			Help: "Jobs completed per task type",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_worker_jobs_failed_total",
			Help: "Jobs failed per task type and error code",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scoring_worker_job_duration_seconds",
			Help:    "Job processing time",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scoring_worker_jobs_active",
			Help: "Jobs currently being processed",
		},
		[]string{"task_type"},
	)

	ScoresComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_scores_computed_total",
			Help: "Candidate scores persisted, by whether the required gate was met",
		},
		[]string{"meets_required"},
	)

	ScoreFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_score_failures_total",
			Help: "Failed scoring attempts by stage",
		},
		[]string{"stage"},
	)

	FinalScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "candidate_final_score",
			Help:    "Distribution of non-null final scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "candidate_scoring_duration_seconds",
			Help:    "Time to fetch, score and persist one application",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requisition_rescore_items_total",
			Help: "Applications processed by requisition rescores, by outcome",
		},
		[]string{"outcome"},
	)

	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_side_effect_failures_total",
			Help: "Best-effort downstream updates that failed",
		},
		[]string{"side_effect"},
	)
)
