// Package response provides the flat JSON response helpers the HTTP
// receiver uses, narrowed from the teacher's envelope ({code,message,data})
// to the exact shapes spec.md §4.5 specifies.
package response

import (
	apperrors "logcore/internal/errors"

	"github.com/gin-gonic/gin"
)

// Created writes the 201 response for a successful POST /api/logs.
func Created(c *gin.Context, id int64) {
	c.JSON(201, gin.H{"id": id, "status": "created"})
}

// Count writes the 200 response for GET /api/logs.
func Count(c *gin.Context, count int64) {
	c.JSON(200, gin.H{"count": count})
}

// Health writes the 200 response for GET /health.
func Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// Error writes the JSON error body for an APIError, e.g. {"error":"Not Found"}.
func Error(c *gin.Context, apiErr *apperrors.APIError) {
	c.JSON(apiErr.HTTPStatus, gin.H{"error": apiErr.Message})
}
