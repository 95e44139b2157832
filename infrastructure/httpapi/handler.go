// Package httpapi serves the relay's read-side REST surface: room history,
// room search and operator stats. All responses are JSON.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"chat-relay/domain"
	"chat-relay/observability"
	"chat-relay/search"
	"chat-relay/services"

	"github.com/samber/lo"
)

// Handler answers read-only queries against the chat service.
type Handler struct {
	log     *slog.Logger
	service services.IChatService
}

func NewHandler(log *slog.Logger, service services.IChatService) *Handler {
	return &Handler{log: log, service: service}
}

// Register mounts the API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rooms/{room}/messages", h.history)
	mux.HandleFunc("GET /api/rooms/{room}/search", h.search)
	mux.HandleFunc("GET /api/stats", h.stats)
}

type messageDTO struct {
	ID     int64  `json:"id"`
	Room   string `json:"room"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Ts     int64  `json:"ts"`
}

func toDTO(msg domain.Message) messageDTO {
	return messageDTO{
		ID:     msg.ID,
		Room:   string(msg.Room),
		Sender: msg.Sender,
		Text:   msg.Text,
		Ts:     msg.SentAt,
	}
}

// history returns the room's most recent messages, oldest first. Unknown
// rooms are indistinguishable from empty ones.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	room := domain.RoomID(r.PathValue("room"))
	limit := queryInt(r, "limit")

	messages, err := h.service.History(r.Context(), room, limit)
	if err != nil {
		h.log.Error("history query failed", "room", room, "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, lo.Map(messages, func(msg domain.Message, _ int) messageDTO {
		return toDTO(msg)
	}))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	room := domain.RoomID(r.PathValue("room"))
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}

	hits, err := h.service.Search(r.Context(), room, query, queryInt(r, "limit"))
	if err != nil {
		h.log.Error("search query failed", "room", room, "error", err)
		http.Error(w, "search unavailable", http.StatusInternalServerError)
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	writeJSON(w, hits)
}

// stats merges the counters with the timeline's view of recent activity,
// keyed by room.
func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	report := h.service.Stats()

	rooms := h.service.ActiveRooms()
	activeRooms := make([]string, 0, len(rooms))
	recent := make(map[string][]messageDTO, len(rooms))
	for _, room := range rooms {
		activeRooms = append(activeRooms, string(room))
		recent[string(room)] = lo.Map(h.service.Recent(room), func(msg domain.Message, _ int) messageDTO {
			return toDTO(msg)
		})
	}

	writeJSON(w, struct {
		observability.Report
		ActiveRooms []string                `json:"active_rooms"`
		Recent      map[string][]messageDTO `json:"recent"`
	}{Report: report, ActiveRooms: activeRooms, Recent: recent})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are gone already; nothing useful left to do.
		return
	}
}

// queryInt parses an optional numeric query parameter, zero when absent
// or malformed. Downstream applies the defaults.
func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0
	}
	return value
}
