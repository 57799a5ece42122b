package dispatcher

import (
	"encoding/json"
	"net/http"
)

// ServeHTTP writes the fleet view as JSON.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(d.Snapshot()); err != nil {
		d.log.Warn("Failed to write fleet view", "error", err)
	}
}
