package prometheus

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/causewayhq/causeway/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled = config.GenFlag[bool]("integrations.prometheus.enabled", false, "Enable Prometheus metrics")
	port    = config.GenFlag[int]("integrations.prometheus.port", 8071, "Prometheus metrics port")
)

var (
	DonationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "causeway_donation_attempts_total",
		Help: "Donation attempts, partitioned by provider and outcome",
	}, []string{"provider", "outcome"})

	PetitionSignatures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "causeway_petition_signatures_total",
		Help: "Accepted petition signatures",
	})
)

func InitMetrics() {
	if !enabled.Value() {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port.Value()), mux); err != nil {
			slog.Error("Error with Prometheus metrics", slog.Any("err", err))
		}
	}()
}
