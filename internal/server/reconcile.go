package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DetectDrift reports drifted counters without writing. ?counter= narrows the
// check and may repeat.
func (s *Server) DetectDrift(c *gin.Context) {
	var names []string
	for _, name := range c.QueryArray("counter") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}

	drift, err := s.reconciler.Detect(c.Request.Context(), names...)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": drift})
}

func (s *Server) RunReconcile(c *gin.Context) {
	report, err := s.reconciler.Run(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report, "rows_corrected": report.RowsCorrected()})
}

func (s *Server) RunReconcileCounter(c *gin.Context) {
	result, err := s.reconciler.RunCounter(c.Request.Context(), strings.TrimSpace(c.Param("counter")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
