package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"splitpay/pkg/logger"
)

// SystemHandler reports service health. The database and redis are optional.
type SystemHandler struct {
	base
	db          *sqlx.DB
	redisClient *redis.Client
	startTime   time.Time
}

func NewSystemHandler(db *sqlx.DB, redisClient *redis.Client, log logger.Logger) *SystemHandler {
	return &SystemHandler{
		base:        base{logger: log},
		db:          db,
		redisClient: redisClient,
		startTime:   time.Now(),
	}
}

type dependencyStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Health pings every configured dependency. Any failure makes the service degraded.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]dependencyStatus{}
	if h.db != nil {
		deps["postgres"] = probe(func() error { return h.db.PingContext(ctx) })
	}
	if h.redisClient != nil {
		deps["redis"] = probe(func() error { return h.redisClient.Ping(ctx).Err() })
	}

	status, code := "healthy", http.StatusOK
	for _, d := range deps {
		if d.Status != "up" {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	h.respondJSON(w, code, map[string]interface{}{
		"status":       status,
		"uptime":       time.Since(h.startTime).Round(time.Second).String(),
		"dependencies": deps,
	})
}

func probe(ping func() error) dependencyStatus {
	start := time.Now()
	err := ping()
	st := dependencyStatus{Status: "up", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		st.Status = "down"
		st.Error = err.Error()
	}
	return st
}
