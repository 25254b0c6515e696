package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func servePDFBytes(c *gin.Context, quoteNumber string, pdfBytes []byte) {
	setPDFHeaders(c, quoteNumber)
	c.Data(http.StatusOK, contentTypePDF, pdfBytes)
}

func setPDFHeaders(c *gin.Context, quoteNumber string) {
	fileName := fmt.Sprintf("Cotizacion-%s.pdf", quoteNumber)
	c.Header("Content-Type", contentTypePDF)
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, fileName))
}
