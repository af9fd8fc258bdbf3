package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/milkround/milkround/internal/customer/domain"
)

func (s *Server) registerCustomerRoutes() {
	group := s.engine.Group("/customers", s.AuthRequired())
	group.POST("", s.handleCreateCustomer)
	group.GET("", s.handleListCustomers)
	group.GET("/:id", s.handleGetCustomer)
	group.PUT("/:id", s.handleUpdateCustomer)
	group.DELETE("/:id", s.handleDeleteCustomer)
	group.GET("/:id/history", s.handleCustomerHistory)
}

func (s *Server) handleCreateCustomer(c *gin.Context) {
	var req customerdomain.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	customer, err := s.customers.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, customer)
}

func (s *Server) handleListCustomers(c *gin.Context) {
	customers, err := s.customers.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, customers)
}

func (s *Server) handleGetCustomer(c *gin.Context) {
	customer, err := s.customers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, customer)
}

func (s *Server) handleUpdateCustomer(c *gin.Context) {
	var req customerdomain.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	customer, err := s.customers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, customer)
}

func (s *Server) handleDeleteCustomer(c *gin.Context) {
	if err := s.customers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "customer deleted")
}

// handleCustomerHistory returns the customer's billed delivery record,
// the whole history or one month when ?period=YYYY-MM is given.
func (s *Server) handleCustomerHistory(c *gin.Context) {
	history, err := s.billingSvc.CustomerHistory(c.Request.Context(), c.Param("id"), c.Query("period"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, history)
}
