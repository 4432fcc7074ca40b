package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/tenantex/internal/api"
)

type KnowledgeHandler struct {
	retrieval RetrievalService
}

func NewKnowledgeHandler(retrieval RetrievalService) *KnowledgeHandler {
	return &KnowledgeHandler{retrieval: retrieval}
}

// Retrieve searches the shared general-knowledge collection. No tenant scope
// applies here, so knowledge_id is accepted but ignored.
func (h *KnowledgeHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrievalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := h.retrieval.RetrieveGeneral(r.Context(), req.Query, toRetrievalSetting(req.RetrievalSetting))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, toRetrievalResponse(results))
}
