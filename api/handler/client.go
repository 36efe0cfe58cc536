package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/store"
)

// RegisterClient returns a handler for POST /api/v1/clients.
//
// Registration is idempotent per email in the negative sense: a second
// registration with the same email gets 409, never a second record.
func RegisterClient(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RegisterClientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, models.ErrCodeInvalidInput, err.Error())
			return
		}

		client := &models.Client{
			ID:           uuid.NewString(),
			ClientName:   req.ClientName,
			ClientEmail:  req.ClientEmail,
			RegisteredAt: time.Now().UTC(),
		}
		if err := st.RegisterClient(c.Request.Context(), client); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.RegisterClientResponse{ClientID: client.ID})
	}
}
