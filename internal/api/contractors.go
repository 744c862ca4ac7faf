package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type registerRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *Handler) RegisterContractorHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheusTimer("POST", "/contractors")
	defer timer.ObserveDuration()

	identity := callerIdentity(r)
	if identity == "" {
		respondWithError(w, http.StatusBadRequest, "Missing X-Identity header", "POST", "/contractors")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body", "POST", "/contractors")
		return
	}
	if req.DisplayName == "" {
		respondWithError(w, http.StatusUnprocessableEntity, "display_name is required", "POST", "/contractors")
		return
	}

	c, err := h.registry.Register(r.Context(), identity, req.DisplayName)
	if err != nil {
		respondDomainError(w, err, "POST", "/contractors")
		return
	}
	respondWithJSON(w, http.StatusCreated, c, "POST", "/contractors")
}

func (h *Handler) GetContractorHandler(w http.ResponseWriter, r *http.Request) {
	identity := mux.Vars(r)["identity"]
	c, err := h.registry.Get(r.Context(), identity)
	if err != nil {
		respondDomainError(w, err, "GET", "/contractors/{identity}")
		return
	}
	respondWithJSON(w, http.StatusOK, c, "GET", "/contractors/{identity}")
}

func (h *Handler) ApproveContractorHandler(w http.ResponseWriter, r *http.Request) {
	h.contractorTransition(w, r, "/contractors/{identity}/approve", h.registry.Approve)
}

func (h *Handler) RejectContractorHandler(w http.ResponseWriter, r *http.Request) {
	h.contractorTransition(w, r, "/contractors/{identity}/reject", h.registry.Reject)
}

func (h *Handler) RevokeContractorHandler(w http.ResponseWriter, r *http.Request) {
	h.contractorTransition(w, r, "/contractors/{identity}/revoke", h.registry.Revoke)
}

func (h *Handler) contractorTransition(w http.ResponseWriter, r *http.Request, endpoint string,
	op func(ctx context.Context, caller, identity string) error) {
	timer := prometheusTimer("POST", endpoint)
	defer timer.ObserveDuration()

	identity := mux.Vars(r)["identity"]
	if err := op(r.Context(), callerIdentity(r), identity); err != nil {
		respondDomainError(w, err, "POST", endpoint)
		return
	}

	c, err := h.registry.Get(r.Context(), identity)
	if err != nil {
		respondDomainError(w, err, "POST", endpoint)
		return
	}
	respondWithJSON(w, http.StatusOK, c, "POST", endpoint)
}
