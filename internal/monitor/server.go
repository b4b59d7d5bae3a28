package monitor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/retailx/theft-monitor/internal/eventlog"
)

// NewServer builds the read-only status server. It exposes no control
// operations: the monitor is started and stopped only by its owner.
func NewServer(addr string, m *Monitor, events *eventlog.Log) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", handleStatus(m))
	mux.HandleFunc("/alerts", handleAlerts(events))
	mux.HandleFunc("/health", handleHealth(m))
	return &http.Server{Addr: addr, Handler: mux}
}

func handleStatus(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.Status())
	}
}

func handleAlerts(events *eventlog.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 100 {
				http.Error(w, "limit must be 1-100", http.StatusBadRequest)
				return
			}
			limit = n
		}

		list := []eventlog.Event{}
		if events != nil {
			recent, err := events.Recent(limit)
			if err != nil {
				http.Error(w, "Failed to read alert journal", http.StatusInternalServerError)
				return
			}
			if recent != nil {
				list = recent
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"alerts": list,
			"count":  len(list),
		})
	}
}

func handleHealth(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := m.Status()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"active": st.Active,
			"source": st.Source,
		})
	}
}
