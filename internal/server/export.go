package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	exportdomain "github.com/milkround/milkround/internal/export/domain"
)

func (s *Server) registerExportRoutes() {
	group := s.engine.Group("/export", s.AuthRequired())
	group.GET("/json", s.handleExportJSON)
	group.GET("/csv", s.handleExportCSV)
	group.POST("/import", s.handleImport)
}

func (s *Server) handleExportJSON(c *gin.Context) {
	snapshot, err := s.exports.ExportJSON(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, snapshot)
}

func (s *Server) handleExportCSV(c *gin.Context) {
	data, err := s.exports.ExportCSV(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("deliveries_%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

func (s *Server) handleImport(c *gin.Context) {
	var snapshot exportdomain.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.exports.Import(c.Request.Context(), snapshot)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}
