package handlers

import (
	"context"
	"net/http"

	"github.com/globaltierra/crm-api/internal/entity"
)

// SnapshotSource serves the snapshot currently in effect.
type SnapshotSource interface {
	Current() *entity.KPISnapshot
}

// SnapshotRefresher recomputes and republishes on demand.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) (*entity.KPISnapshot, error)
}

type KPIHandler struct {
	Source    SnapshotSource
	Refresher SnapshotRefresher
}

func NewKPIHandler(source SnapshotSource, refresher SnapshotRefresher) *KPIHandler {
	return &KPIHandler{Source: source, Refresher: refresher}
}

func (h *KPIHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	snap := h.Source.Current()
	if snap == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no_snapshot"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *KPIHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Refresher.Refresh(r.Context())
	if err != nil {
		// Prior snapshot stays current.
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "recompute_failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"generatedAt": snap.GeneratedAt})
}
