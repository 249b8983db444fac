package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter mounts the API and the websocket endpoint behind CORS.
func NewRouter(a *API, ws http.Handler) http.Handler {
	r := mux.NewRouter()

	r.Handle("/ws", ws)
	r.HandleFunc("/", a.RootHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", a.HealthHandler).Methods(http.MethodGet)

	sub := r.PathPrefix("/api").Subrouter()
	sub.HandleFunc("/stats", a.StatsHandler).Methods(http.MethodGet)
	sub.HandleFunc("/rooms", a.ListRoomsHandler).Methods(http.MethodGet)
	sub.HandleFunc("/rooms/{id}/rename", a.RenameRoomHandler).Methods(http.MethodPost)
	sub.HandleFunc("/set-job", a.SetJobHandler).Methods(http.MethodPost)
	sub.HandleFunc("/status/{jobId}", a.JobStatusHandler).Methods(http.MethodGet)

	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.MethodNotAllowedHandler = notAllowed
	sub.MethodNotAllowedHandler = notAllowed

	return corsMiddleware(r)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
