package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/middleware"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/service"
)

// handleHealth reports the registered dependency probes. Any failing probe
// turns the response into 503.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC(),
		"version":   s.configManager.GetConfig().MCP.ServerVersion,
		"checks":    checks,
	})
}

// handleCreateAnalysis runs an analysis synchronously and returns the ranking.
func (s *Server) handleCreateAnalysis(c *gin.Context) {
	var req service.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewAnalysisError(domain.ErrInvalidInput, "Malformed analysis request", err.Error(), ""))
		return
	}

	resp, err := s.analyses.Analyze(c.Request.Context(), &req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// handleGetAnalysis returns an archived run.
func (s *Server) handleGetAnalysis(c *gin.Context) {
	resp, err := s.analyses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleListAnalyses pages through archived runs with ?limit= and ?offset=.
func (s *Server) handleListAnalyses(c *gin.Context) {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		s.respondError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.respondError(c, err)
		return
	}

	runs, total, err := s.analyses.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runs":   runs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer", raw)
	}
	return v, nil
}

// respondError writes err as an AnalysisError with a status matching its code.
func (s *Server) respondError(c *gin.Context, err error) {
	body := toAnalysisError(err, c.GetString(middleware.CorrelationIDKey))
	status := statusFor(body.Code)

	entry := s.logger.WithFields(logrus.Fields{
		"correlation_id": body.RequestID,
		"code":           body.Code,
		"error":          err.Error(),
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	c.AbortWithStatusJSON(status, body)
}

func toAnalysisError(err error, requestID string) *domain.AnalysisError {
	if ae, ok := err.(*domain.AnalysisError); ok {
		if ae.RequestID == "" {
			ae.RequestID = requestID
		}
		return ae
	}
	code := domain.ErrorCode(err)
	message := messages[code]
	if message == "" {
		message = "Internal server error"
	}
	details := err.Error()
	if code == domain.ErrInternalServer {
		details = ""
	}
	return domain.NewAnalysisError(code, message, details, requestID)
}

var messages = map[string]string{
	domain.ErrInvalidInput:          "Invalid input",
	domain.ErrValidation:            "Invalid patient evidence or options",
	domain.ErrInvalidConfig:         "Invalid analysis options",
	domain.ErrBackgroundUnavailable: "Background variant rates are not available for the genome build",
	domain.ErrRunInterrupted:        "Analysis was interrupted",
	domain.ErrTaskFailure:           "One or more diseases could not be scored",
	domain.ErrNotFound:              "Analysis run not found",
	domain.ErrDatabaseError:         "Result archive unavailable",
	domain.ErrRateLimit:             "Too many requests",
}

func statusFor(code string) int {
	switch code {
	case domain.ErrInvalidInput, domain.ErrValidation, domain.ErrInvalidConfig:
		return http.StatusBadRequest
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrBackgroundUnavailable:
		return http.StatusUnprocessableEntity
	case domain.ErrRateLimit:
		return http.StatusTooManyRequests
	case domain.ErrRunInterrupted, domain.ErrDatabaseError:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
