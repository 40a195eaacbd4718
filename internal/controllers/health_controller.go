package controllers

import (
	"appero/internal/connectivity"
	"appero/internal/services"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

type HealthController struct {
	engine    services.SyncEngineInterface
	monitor   connectivity.MonitorInterface
	startTime time.Time
}

type healthResponse struct {
	Status            string  `json:"status"`
	Uptime            string  `json:"uptime"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
	Connected         bool    `json:"connected"`
	ForceOffline      bool    `json:"force_offline"`
	UnsentExperiences int     `json:"unsent_experiences"`
	UnsentFeedback    int     `json:"unsent_feedback"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	exp, fb := hc.engine.QueueSizes()
	resp := healthResponse{
		Status:            "ok",
		Uptime:            formatDuration(uptime),
		UptimeSeconds:     uptime.Seconds(),
		Connected:         hc.monitor.IsConnected(),
		ForceOffline:      hc.monitor.ForceOffline(),
		UnsentExperiences: exp,
		UnsentFeedback:    fb,
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(engine services.SyncEngineInterface, monitor connectivity.MonitorInterface) *HealthController {
	return &HealthController{
		engine:    engine,
		monitor:   monitor,
		startTime: time.Now(),
	}
}
