package routers

import (
	"ledgerid/handlers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes sets up all the HTTP routes
func RegisterRoutes(r *mux.Router, h *handlers.Handler, gatherer prometheus.Gatherer) {

	// Digest string to numeric id and back
	r.HandleFunc("/digests", h.EncodeDigest).Methods("POST")
	r.HandleFunc("/digests/{digest}", h.GetDigest).Methods("GET")

	// Holder bound ids
	r.HandleFunc("/holder-ids", h.DeriveHolderID).Methods("POST")
	r.HandleFunc("/holder-ids/{derived}", h.RecoverHolderID).Methods("GET")
	r.HandleFunc("/holder-ids/{derived}/verify", h.VerifyHolderID).Methods("GET")

	// Calibration table only, no ledger calls
	r.HandleFunc("/heights/estimate", h.EstimateHeight).Methods("GET")

	// At most two ledger calls after the tip
	r.HandleFunc("/heights", h.GetHeight).Methods("GET")

	// Exact, O(log n) ledger calls
	r.HandleFunc("/heights/search", h.SearchHeight).Methods("GET")

	r.HandleFunc("/heights/average-step", h.AverageStep).Methods("GET")

	// Only available when serving from the local index
	if h.Blocks != nil {
		r.HandleFunc("/blocks", h.PutBlock).Methods("POST")
	}

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
}
