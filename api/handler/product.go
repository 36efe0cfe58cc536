package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/store"
)

// ListProducts returns a handler for GET /api/v1/products.
//
// Optional query filters: client_name, category, min_price, max_price.
func ListProducts(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := models.ProductFilter{
			ClientName: c.Query("client_name"),
			Category:   c.Query("category"),
		}

		var parseErr bool
		f.MinPrice, parseErr = priceParam(c, "min_price")
		if parseErr {
			return
		}
		f.MaxPrice, parseErr = priceParam(c, "max_price")
		if parseErr {
			return
		}

		products, err := st.ListProducts(c.Request.Context(), f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
	}
}

// priceParam parses an optional float query parameter, writing a 400 and
// reporting failure when the value is present but not a number.
func priceParam(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, models.ErrCodeInvalidInput,
			"invalid "+name+": "+raw)
		return nil, true
	}
	return &v, false
}
