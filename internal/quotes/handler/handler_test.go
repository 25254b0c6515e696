package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestServePDFBytesSetsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	servePDFBytes(c, "COT-20261014-001", []byte("%PDF-1.4"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != contentTypePDF {
		t.Fatalf("expected %s, got %q", contentTypePDF, got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `inline; filename="Cotizacion-COT-20261014-001.pdf"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if w.Body.String() != "%PDF-1.4" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestDownloadPDFRejectsInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(nil, nil)
	r.GET("/quotes/:id/pdf", h.DownloadPDF)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quotes/not-a-uuid/pdf", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
