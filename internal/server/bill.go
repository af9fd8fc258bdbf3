package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/milkround/milkround/internal/billing/domain"
)

func (s *Server) registerBillRoutes() {
	group := s.engine.Group("/bill", s.AuthRequired())
	group.GET("", s.handleGetBill)
	group.GET("/pdf", s.handleGetBillPDF)
}

func (s *Server) handleGetBill(c *gin.Context) {
	var req billingdomain.BillRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	report, err := s.billingSvc.BuildBill(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, report)
}

func (s *Server) handleGetBillPDF(c *gin.Context) {
	var req billingdomain.BillRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	report, err := s.billingSvc.BuildBill(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	reader, err := s.pdfs.GenerateBill(c.Request.Context(), report)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("bill_%s_%s.pdf", report.From, report.To)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", doc)
}
