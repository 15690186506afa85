package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"net/mail"
	"sync"
	"time"

	"github.com/hki-dev/hki-crm/internal/entity"
	"github.com/hki-dev/hki-crm/internal/infra/http/middleware"
	"github.com/hki-dev/hki-crm/internal/infra/queue"
)

// LeadHandler captures inbound leads from the marketing site and queues
// the platform sync.
type LeadHandler struct {
	leadRepo    entity.LeadRepositoryInterface
	producer    queue.SyncProducerInterface
	rateLimiter *RateLimiter
}

func NewLeadHandler(leadRepo entity.LeadRepositoryInterface, producer queue.SyncProducerInterface) *LeadHandler {
	return &LeadHandler{
		leadRepo:    leadRepo,
		producer:    producer,
		rateLimiter: NewRateLimiter(10, time.Minute), // 10 req/min per IP
	}
}

type CaptureLeadRequest struct {
	Email     string            `json:"email"`
	FirstName string            `json:"firstName,omitempty"`
	LastName  string            `json:"lastName,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Company   string            `json:"company,omitempty"`
	UTM       entity.UTMParams  `json:"utm"`
	Property  map[string]string `json:"property,omitempty"`
	OptIn     bool              `json:"marketingOptIn"`
}

type CaptureLeadResponse struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientIP := getClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		writeCapture(w, http.StatusTooManyRequests, CaptureLeadResponse{
			Message: "Too many requests. Please try again later.",
		})
		return
	}

	var req CaptureLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCapture(w, http.StatusBadRequest, CaptureLeadResponse{Message: "Invalid JSON"})
		return
	}

	if req.Email == "" {
		writeCapture(w, http.StatusBadRequest, CaptureLeadResponse{Message: "Email is required"})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeCapture(w, http.StatusBadRequest, CaptureLeadResponse{Message: "Email is invalid"})
		return
	}

	lead := &entity.Lead{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Company:        req.Company,
		UTM:            req.UTM,
		MarketingOptIn: req.OptIn,
		Property: entity.PropertyInfo{
			Address:        req.Property["address"],
			City:           req.Property["city"],
			State:          req.Property["state"],
			Zip:            req.Property["zip"],
			PropertyType:   req.Property["propertyType"],
			EstimatedValue: req.Property["estimatedValue"],
		},
	}

	if err := h.leadRepo.Upsert(ctx, lead); err != nil {
		writeCapture(w, http.StatusInternalServerError, CaptureLeadResponse{Message: "Failed to capture lead"})
		return
	}

	middleware.RecordLeadCapture()

	// The lead is stored either way; a queue hiccup only delays the sync.
	if h.producer != nil {
		payload := queue.SyncPayload{LeadID: lead.ID, Email: lead.Email, Trigger: "INTAKE"}
		if err := h.producer.PublishLeadSync(ctx, payload); err != nil {
			log.Printf("⚠️ [Intake] sync publish for %s failed: %v", lead.Email, err)
		}
	}

	writeCapture(w, http.StatusOK, CaptureLeadResponse{Success: true, LeadID: lead.ID})
}

func writeCapture(w http.ResponseWriter, status int, resp CaptureLeadResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
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
