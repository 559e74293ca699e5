// Package server exposes a classifier session over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wnxii/scam-slayer-hackrift-2024/inference"
	"github.com/wnxii/scam-slayer-hackrift-2024/label"
)

// MaxBatch bounds the texts accepted by one batch request.
const MaxBatch = 64

// Predictor classifies one text.
type Predictor interface {
	Predict(text string) (inference.Result, error)
}

// ClassifyRequest is the body of POST /classify.
type ClassifyRequest struct {
	Text *string `json:"text" binding:"required"`
}

// BatchClassifyRequest is the body of POST /classify/batch.
type BatchClassifyRequest struct {
	Texts []string `json:"texts" binding:"required"`
}

// ClassifyResponse is one classification.
type ClassifyResponse struct {
	Text          string             `json:"text"`
	Label         string             `json:"label"`
	LabelID       int                `json:"label_id"`
	IsScam        bool               `json:"is_scam"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// BatchClassifyResponse holds the results in request order.
type BatchClassifyResponse struct {
	Results []ClassifyResponse `json:"results"`
	Total   int                `json:"total"`
}

// ErrorResponse is returned with every non 2xx status.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Handler serves the classification endpoints.
type Handler struct {
	predictor Predictor
	log       *zap.Logger
}

// NewHandler creates a handler.
func NewHandler(p Predictor, log *zap.Logger) *Handler {
	return &Handler{predictor: p, log: log}
}

func toResponse(text string, r inference.Result) ClassifyResponse {
	probs := make(map[string]float64, label.Count)
	for i, p := range r.Probabilities {
		probs[label.Label(i).String()] = p
	}
	return ClassifyResponse{
		Text:          text,
		Label:         r.Class.String(),
		LabelID:       int(r.Class),
		IsScam:        r.Class == label.Scam,
		Confidence:    r.Confidence,
		Probabilities: probs,
	}
}

func (h *Handler) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error("Classification failed", zap.Error(err), zap.String("request_id", c.GetString("request_id")))
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), RequestID: c.GetString("request_id")})
}

func predictStatus(err error) int {
	if errors.Is(err, inference.ErrClosed) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Classify handles POST /classify
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	r, err := h.predictor.Predict(*req.Text)
	if err != nil {
		h.fail(c, predictStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, toResponse(*req.Text, r))
}

// ClassifyBatch handles POST /classify/batch
func (h *Handler) ClassifyBatch(c *gin.Context) {
	var req BatchClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	if len(req.Texts) > MaxBatch {
		h.fail(c, http.StatusBadRequest, errors.New("too many texts in one batch"))
		return
	}
	out := BatchClassifyResponse{Results: make([]ClassifyResponse, 0, len(req.Texts))}
	for _, text := range req.Texts {
		r, err := h.predictor.Predict(text)
		if err != nil {
			h.fail(c, predictStatus(err), err)
			return
		}
		out.Results = append(out.Results, toResponse(text, r))
	}
	out.Total = len(out.Results)
	c.JSON(http.StatusOK, out)
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// RequestID tags every request with an X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Logger logs one line per request.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// New creates the router.
func New(p Predictor, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	h := NewHandler(p, log)

	router := gin.New()
	router.Use(RequestID())
	router.Use(Logger(log))
	router.Use(gin.Recovery())

	router.GET("/health", h.Health)
	router.POST("/classify", h.Classify)
	router.POST("/classify/batch", h.ClassifyBatch)
	return router
}
