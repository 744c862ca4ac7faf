package api

import (
	"encoding/json"
	"net/http"
)

type submitBidRequest struct {
	ContractID   int64 `json:"contract_id"`
	Amount       int64 `json:"amount"`
	DurationDays int64 `json:"duration_days"`
}

func (h *Handler) SubmitBidHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheusTimer("POST", "/bids")
	defer timer.ObserveDuration()

	var req submitBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/bids")
		return
	}
	if req.Amount <= 0 {
		respondWithError(w, http.StatusUnprocessableEntity, "Positive amount required", "POST", "/bids")
		return
	}
	if req.DurationDays <= 0 {
		respondWithError(w, http.StatusUnprocessableEntity, "Positive duration required", "POST", "/bids")
		return
	}
	if req.ContractID <= 0 {
		respondWithError(w, http.StatusUnprocessableEntity, "contract_id is required", "POST", "/bids")
		return
	}

	b, err := h.ledger.SubmitBid(r.Context(), callerIdentity(r), req.ContractID, req.Amount, req.DurationDays)
	if err != nil {
		respondDomainError(w, err, "POST", "/bids")
		return
	}
	respondWithJSON(w, http.StatusCreated, b, "POST", "/bids")
}

func (h *Handler) GetBidHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "GET", "/bids/{id}")
	if !ok {
		return
	}
	b, err := h.ledger.GetBid(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "GET", "/bids/{id}")
		return
	}
	respondWithJSON(w, http.StatusOK, b, "GET", "/bids/{id}")
}

func (h *Handler) WithdrawBidHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheusTimer("POST", "/bids/{id}/withdraw")
	defer timer.ObserveDuration()

	id, ok := pathID(w, r, "POST", "/bids/{id}/withdraw")
	if !ok {
		return
	}
	if err := h.ledger.WithdrawBid(r.Context(), callerIdentity(r), id); err != nil {
		respondDomainError(w, err, "POST", "/bids/{id}/withdraw")
		return
	}

	b, err := h.ledger.GetBid(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "POST", "/bids/{id}/withdraw")
		return
	}
	respondWithJSON(w, http.StatusOK, b, "POST", "/bids/{id}/withdraw")
}

func (h *Handler) AwardBidHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheusTimer("POST", "/bids/{id}/award")
	defer timer.ObserveDuration()

	id, ok := pathID(w, r, "POST", "/bids/{id}/award")
	if !ok {
		return
	}
	if err := h.ledger.AwardBid(r.Context(), callerIdentity(r), id); err != nil {
		respondDomainError(w, err, "POST", "/bids/{id}/award")
		return
	}

	b, err := h.ledger.GetBid(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "POST", "/bids/{id}/award")
		return
	}
	respondWithJSON(w, http.StatusOK, b, "POST", "/bids/{id}/award")
}
