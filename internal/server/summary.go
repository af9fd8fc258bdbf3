package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	summarydomain "github.com/milkround/milkround/internal/summary/domain"
)

func (s *Server) registerSummaryRoutes() {
	group := s.engine.Group("/summary", s.AuthRequired())
	group.GET("/report", s.handleSummaryReport)
	group.GET("/:period", s.handleGetSummary)
	group.PUT("/:period/rate", s.handleUpdateSummaryRate)
}

func (s *Server) handleSummaryReport(c *gin.Context) {
	report, err := s.summaries.GetReport(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, report)
}

func (s *Server) handleGetSummary(c *gin.Context) {
	summary, err := s.summaries.GetPeriod(c.Request.Context(), c.Param("period"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, summary)
}

func (s *Server) handleUpdateSummaryRate(c *gin.Context) {
	var req summarydomain.UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.summaries.UpdatePeriodRate(c.Request.Context(), c.Param("period"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}
