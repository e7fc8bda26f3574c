package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/globaltierra/crm-api/internal/infra/http/middleware"
	"github.com/globaltierra/crm-api/internal/usecase"
)

type LeadHandler struct {
	SubmitLead  *usecase.SubmitLeadUseCase
	rateLimiter *RateLimiter
}

func NewLeadHandler(submitLead *usecase.SubmitLeadUseCase) *LeadHandler {
	return &LeadHandler{
		SubmitLead:  submitLead,
		rateLimiter: NewRateLimiter(10, time.Minute), // 10 req/min per IP
	}
}

type leadErrorResponse struct {
	Error  string                    `json:"error"`
	Fields []usecase.ValidationError `json:"fields,omitempty"`
}

func (h *LeadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	clientIP := getClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		writeJSON(w, http.StatusTooManyRequests, leadErrorResponse{Error: "rate_limited"})
		return
	}

	var input usecase.SubmitLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, leadErrorResponse{Error: "invalid_json"})
		return
	}

	output, err := h.SubmitLead.Execute(r.Context(), input)
	if err != nil {
		var verrs usecase.ValidationErrors
		if errors.As(err, &verrs) {
			middleware.RecordLeadCaptured("rejected")
			writeJSON(w, http.StatusBadRequest, leadErrorResponse{
				Error:  "validation_failed",
				Fields: verrs,
			})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, leadErrorResponse{Error: "store_unavailable"})
		return
	}

	if output.Deduped {
		middleware.RecordLeadCaptured("deduped")
	} else {
		middleware.RecordLeadCaptured("created")
	}

	writeJSON(w, http.StatusCreated, output)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
