// Package api serves the HTTP surface next to the websocket relay: health
// and stats probes, active room listings and the job proxy.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/manpreetbhatti/codesync/internal/db"
	"github.com/manpreetbhatti/codesync/internal/logging"
	"github.com/manpreetbhatti/codesync/internal/room"
)

const (
	RootBanner   = "Collaborative Code Editor Running"
	storeTimeout = 2 * time.Second
)

type API struct {
	registry    *room.Registry
	counter     db.Counter
	compilerURL string
	client      *http.Client
	log         *logrus.Entry
}

// New builds the API. counter may be nil, in which case the created-rooms
// total reads as zero.
func New(registry *room.Registry, counter db.Counter, compilerURL string) *API {
	return &API{
		registry:    registry,
		counter:     counter,
		compilerURL: compilerURL,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         logging.NewLogger("api"),
	}
}

func (a *API) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.log.WithError(err).Warn("Error encoding JSON response")
	}
}

func (a *API) errorResponse(w http.ResponseWriter, status int, message string) {
	a.jsonResponse(w, status, map[string]string{"status": "error", "message": message})
}

func (a *API) totalRooms(ctx context.Context) (int64, error) {
	if a.counter == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return a.counter.Count(ctx)
}

// HealthHandler reports how many rooms have ever been created.
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	total, err := a.totalRooms(r.Context())
	if err != nil {
		a.log.WithError(err).Warn("Room counter unavailable")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("0"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(strconv.FormatInt(total, 10)))
}

func (a *API) RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(RootBanner))
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"active_rooms":   a.registry.RoomCount(),
		"active_clients": a.registry.ClientCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}

	if total, err := a.totalRooms(r.Context()); err == nil {
		stats["total_rooms"] = total
	} else {
		a.log.WithError(err).Debug("Room counter unavailable for stats")
	}

	a.jsonResponse(w, http.StatusOK, stats)
}

func (a *API) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms := a.registry.Rooms()
	if rooms == nil {
		rooms = []room.Info{}
	}

	a.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"rooms": rooms,
		"count": len(rooms),
	})
}

type RenameRoomRequest struct {
	File      string `json:"file"`
	Extension string `json:"extension"`
}

// RenameRoomHandler changes a live room's file metadata. Empty fields are
// left as they are.
func (a *API) RenameRoomHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req RenameRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rm, ok := a.registry.Get(id)
	if !ok {
		a.errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	rm.Rename(req.File, req.Extension)
	a.log.WithField("room", id).Info("Room file renamed")
	a.jsonResponse(w, http.StatusOK, rm.Info())
}
