package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/punchamoorthee/tenderops/internal/service"
)

type createContractRequest struct {
	Description                 string    `json:"description"`
	BidDeadline                 time.Time `json:"bid_deadline"`
	DailyPenaltyRatePerThousand int64     `json:"daily_penalty_rate_per_thousand"`
	MaxPenaltyPercent           int64     `json:"max_penalty_percent"`
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) CreateContractHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheusTimer("POST", "/contracts")
	defer timer.ObserveDuration()

	var req createContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/contracts")
		return
	}
	if req.Description == "" {
		respondWithError(w, http.StatusUnprocessableEntity, "description is required", "POST", "/contracts")
		return
	}
	if req.BidDeadline.IsZero() {
		respondWithError(w, http.StatusUnprocessableEntity, "bid_deadline is required", "POST", "/contracts")
		return
	}
	if req.DailyPenaltyRatePerThousand < 0 || req.MaxPenaltyPercent < 0 || req.MaxPenaltyPercent > 100 {
		respondWithError(w, http.StatusUnprocessableEntity, "penalty parameters out of range", "POST", "/contracts")
		return
	}

	c, err := h.ledger.CreateContract(r.Context(), callerIdentity(r), service.CreateContractParams{
		Description:              req.Description,
		BidDeadline:              req.BidDeadline,
		DailyPenaltyRatePerMille: req.DailyPenaltyRatePerThousand,
		MaxPenaltyPercent:        req.MaxPenaltyPercent,
	})
	if err != nil {
		respondDomainError(w, err, "POST", "/contracts")
		return
	}
	respondWithJSON(w, http.StatusCreated, c, "POST", "/contracts")
}

func (h *Handler) GetContractHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "GET", "/contracts/{id}")
	if !ok {
		return
	}
	c, err := h.ledger.GetContract(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "GET", "/contracts/{id}")
		return
	}
	respondWithJSON(w, http.StatusOK, c, "GET", "/contracts/{id}")
}

func (h *Handler) CloseContractHandler(w http.ResponseWriter, r *http.Request) {
	h.contractTransition(w, r, "/contracts/{id}/close", h.ledger.CloseContract)
}

func (h *Handler) CancelContractHandler(w http.ResponseWriter, r *http.Request) {
	h.contractTransition(w, r, "/contracts/{id}/cancel", h.ledger.CancelContract)
}

func (h *Handler) StartWorkHandler(w http.ResponseWriter, r *http.Request) {
	h.contractTransition(w, r, "/contracts/{id}/start", h.ledger.StartWork)
}

func (h *Handler) CompleteWorkHandler(w http.ResponseWriter, r *http.Request) {
	h.contractTransition(w, r, "/contracts/{id}/complete", h.ledger.CompleteWork)
}

func (h *Handler) DepositEscrowHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheusTimer("POST", "/contracts/{id}/escrow")
	defer timer.ObserveDuration()

	id, ok := pathID(w, r, "POST", "/contracts/{id}/escrow")
	if !ok {
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/contracts/{id}/escrow")
		return
	}
	if req.Amount <= 0 {
		respondWithError(w, http.StatusUnprocessableEntity, "Positive amount required", "POST", "/contracts/{id}/escrow")
		return
	}

	if err := h.settlement.DepositEscrow(r.Context(), callerIdentity(r), id, req.Amount); err != nil {
		respondDomainError(w, err, "POST", "/contracts/{id}/escrow")
		return
	}

	balance, err := h.settlement.EscrowBalance(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "POST", "/contracts/{id}/escrow")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"contract_id": id, "escrow_balance": balance}, "POST", "/contracts/{id}/escrow")
}

func (h *Handler) EscrowBalanceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "GET", "/contracts/{id}/escrow")
	if !ok {
		return
	}
	balance, err := h.settlement.EscrowBalance(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "GET", "/contracts/{id}/escrow")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"contract_id": id, "escrow_balance": balance}, "GET", "/contracts/{id}/escrow")
}

func (h *Handler) CalculatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "GET", "/contracts/{id}/payment")
	if !ok {
		return
	}
	payment, err := h.settlement.CalculatePayment(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "GET", "/contracts/{id}/payment")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"contract_id": id, "payment": payment}, "GET", "/contracts/{id}/payment")
}

func (h *Handler) PayAwardedBidHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheusTimer("POST", "/contracts/{id}/pay")
	defer timer.ObserveDuration()

	id, ok := pathID(w, r, "POST", "/contracts/{id}/pay")
	if !ok {
		return
	}
	payment, err := h.settlement.PayAwardedBid(r.Context(), callerIdentity(r), id)
	if err != nil {
		respondDomainError(w, err, "POST", "/contracts/{id}/pay")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"contract_id": id, "payment": payment}, "POST", "/contracts/{id}/pay")
}

func (h *Handler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	identity := mux.Vars(r)["identity"]
	balance, err := h.settlement.AccountBalance(r.Context(), identity)
	if err != nil {
		respondDomainError(w, err, "GET", "/accounts/{identity}")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"identity": identity, "balance": balance}, "GET", "/accounts/{identity}")
}

func (h *Handler) contractTransition(w http.ResponseWriter, r *http.Request, endpoint string,
	op func(ctx context.Context, caller string, id int64) error) {
	timer := prometheusTimer("POST", endpoint)
	defer timer.ObserveDuration()

	id, ok := pathID(w, r, "POST", endpoint)
	if !ok {
		return
	}
	if err := op(r.Context(), callerIdentity(r), id); err != nil {
		respondDomainError(w, err, "POST", endpoint)
		return
	}

	c, err := h.ledger.GetContract(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "POST", endpoint)
		return
	}
	respondWithJSON(w, http.StatusOK, c, "POST", endpoint)
}

func pathID(w http.ResponseWriter, r *http.Request, method, endpoint string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid id", method, endpoint)
		return 0, false
	}
	return id, true
}
