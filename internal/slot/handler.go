package slot

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/hospital-management/internal/transport"
	"github.com/frahmantamala/hospital-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetDoctorSlots returns the slot grid for one doctor and day.
func (h *Handler) GetDoctorSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "id")
	if doctorID == "" {
		h.WriteError(w, http.StatusBadRequest, "doctor id is required")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		h.WriteError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}

	slotMinutes := 0
	if raw := r.URL.Query().Get("slot_minutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "slot_minutes must be an integer")
			return
		}
		slotMinutes = parsed
	}

	schedule, err := h.Service.ComputeSlots(r.Context(), doctorID, date, slotMinutes)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, schedule)
}
