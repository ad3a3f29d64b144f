package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

type configAPI struct {
	cfile string
}

// ConfigHandler serves the runtime subset of cfile on /api/config. GET
// returns it as JSON; POST merges a JSON RuntimeConfig into the file, which
// the watcher then picks up.
func ConfigHandler(cfile string) http.HandlerFunc {
	api := &configAPI{cfile: cfile}
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Config API request", "method", r.Method)
		switch r.Method {
		case http.MethodGet:
			api.get(w)
		case http.MethodPost:
			api.post(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (a *configAPI) get(w http.ResponseWriter) {
	conf, err := ReadConfig(a.cfile)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to read configuration", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(RuntimeConfig{Sampling: conf.Sampling}); err != nil {
		slog.Error("Encoding runtime config", "error", err)
	}
}

func (a *configAPI) post(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var update RuntimeConfig
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	conf, err := ReadConfig(a.cfile)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to read configuration", err)
		return
	}
	conf.Sampling = update.Sampling
	if err := conf.Validate(); err != nil {
		fail(w, http.StatusBadRequest, fmt.Sprintf("Invalid configuration: %v", err), err)
		return
	}

	data, err := yaml.Marshal(conf)
	if err == nil {
		err = os.WriteFile(a.cfile, data, 0o644)
	}
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to save configuration", err)
		return
	}

	slog.Info("Sampling interval saved", "interval", conf.Sampling.Interval)
	fmt.Fprintln(w, "Configuration updated.")
}

func fail(w http.ResponseWriter, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error(msg, "error", err)
	} else {
		slog.Warn(msg, "error", err)
	}
	http.Error(w, msg, status)
}
