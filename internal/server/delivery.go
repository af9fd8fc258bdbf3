package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	deliverydomain "github.com/milkround/milkround/internal/delivery/domain"
)

func (s *Server) registerDeliveryRoutes() {
	group := s.engine.Group("/deliveries", s.AuthRequired())
	group.POST("", s.handleUpsertDelivery)
	group.GET("", s.handleListDeliveries)
	group.DELETE("/:id", s.handleDeleteDelivery)
}

func (s *Server) handleUpsertDelivery(c *gin.Context) {
	var req deliverydomain.UpsertDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.deliveries.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respond(c, status, result)
}

func (s *Server) handleListDeliveries(c *gin.Context) {
	var req deliverydomain.ListDeliveriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.deliveries.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}

func (s *Server) handleDeleteDelivery(c *gin.Context) {
	if err := s.deliveries.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "delivery deleted")
}
