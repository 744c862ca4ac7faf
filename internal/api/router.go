package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the full operation surface.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/contractors", h.RegisterContractorHandler).Methods("POST")
	apiV1.HandleFunc("/contractors/{identity}", h.GetContractorHandler).Methods("GET")
	apiV1.HandleFunc("/contractors/{identity}/approve", h.ApproveContractorHandler).Methods("POST")
	apiV1.HandleFunc("/contractors/{identity}/reject", h.RejectContractorHandler).Methods("POST")
	apiV1.HandleFunc("/contractors/{identity}/revoke", h.RevokeContractorHandler).Methods("POST")

	apiV1.HandleFunc("/contracts", h.CreateContractHandler).Methods("POST")
	apiV1.HandleFunc("/contracts/{id}", h.GetContractHandler).Methods("GET")
	apiV1.HandleFunc("/contracts/{id}/close", h.CloseContractHandler).Methods("POST")
	apiV1.HandleFunc("/contracts/{id}/cancel", h.CancelContractHandler).Methods("POST")
	apiV1.HandleFunc("/contracts/{id}/start", h.StartWorkHandler).Methods("POST")
	apiV1.HandleFunc("/contracts/{id}/complete", h.CompleteWorkHandler).Methods("POST")
	apiV1.HandleFunc("/contracts/{id}/escrow", h.DepositEscrowHandler).Methods("POST")
	apiV1.HandleFunc("/contracts/{id}/escrow", h.EscrowBalanceHandler).Methods("GET")
	apiV1.HandleFunc("/contracts/{id}/payment", h.CalculatePaymentHandler).Methods("GET")
	apiV1.HandleFunc("/contracts/{id}/pay", h.PayAwardedBidHandler).Methods("POST")

	apiV1.HandleFunc("/bids", h.SubmitBidHandler).Methods("POST")
	apiV1.HandleFunc("/bids/{id}", h.GetBidHandler).Methods("GET")
	apiV1.HandleFunc("/bids/{id}/withdraw", h.WithdrawBidHandler).Methods("POST")
	apiV1.HandleFunc("/bids/{id}/award", h.AwardBidHandler).Methods("POST")

	apiV1.HandleFunc("/accounts/{identity}", h.GetAccountHandler).Methods("GET")
	apiV1.HandleFunc("/events", h.EventsHandler).Methods("GET")

	return r
}
