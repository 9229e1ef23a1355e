// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReviewAssignments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "review_assignments_total",
			Help: "Total number of applications assigned to reviewers",
		},
	)

	AssignmentRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_assignment_rejections_total",
			Help: "Total number of assignment requests not resulting in a claim",
		},
		[]string{"reason"},
	)

	SectionsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_sections_submitted_total",
			Help: "Total number of section submissions by resulting status",
		},
		[]string{"status"},
	)

	Releases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_releases_total",
			Help: "Total number of finalized reviews by outcome",
		},
		[]string{"outcome"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_notification_failures_total",
			Help: "Total number of notification sends that failed",
		},
		[]string{"channel"},
	)
)
