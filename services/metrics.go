package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// softDeleteTotal counts soft deletes by target kind
	softDeleteTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_soft_delete_total",
		Help: "Total soft deletes by kind (post, comment, attachment)",
	}, []string{"kind"})

	// uploadTotal counts stored uploads by result
	uploadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_upload_total",
		Help: "Total uploaded files by result",
	}, []string{"result"})

	uploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "board_upload_bytes",
		Help:    "Size of stored uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB to 16MiB
	})

	loginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "board_login_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	purgedFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "board_purged_files_total",
		Help: "Backing files removed for soft-deleted attachments",
	})
)
