package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skillcompass/skillcompass/internal/content"
)

// CatalogHandler serves the static field and skill catalog
type CatalogHandler struct{}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// Fields handles GET /catalog/fields.
func (h *CatalogHandler) Fields(c *gin.Context) {
	SuccessResponse(c, gin.H{"fields": content.Fields()})
}

// Skills handles GET /catalog/skills. With a field query parameter the
// list is scoped to that field.
func (h *CatalogHandler) Skills(c *gin.Context) {
	if fieldID := c.Query("field"); fieldID != "" {
		field, ok := content.FieldByID(fieldID)
		if !ok {
			NotFoundResponse(c, "Unknown field")
			return
		}
		SuccessResponse(c, gin.H{"skills": field.Skills})
		return
	}
	SuccessResponse(c, gin.H{"skills": content.Skills()})
}
