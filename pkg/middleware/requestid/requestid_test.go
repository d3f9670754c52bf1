package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var fromCtx string
	r.GET("/", func(c *gin.Context) {
		fromCtx = FromContext(c.Request.Context())
		c.String(http.StatusOK, Value(c))
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, fromCtx
}

func TestMiddlewareKeepsValidInboundID(t *testing.T) {
	w, fromCtx := serve("console-123")
	assert.Equal(t, "console-123", w.Header().Get(Header))
	assert.Equal(t, "console-123", w.Body.String())
	assert.Equal(t, "console-123", fromCtx)
}

func TestMiddlewareReplacesMissingOrUnsafeID(t *testing.T) {
	for _, header := range []string{"", "bad id\nwith newline", string(make([]byte, 100))} {
		w, _ := serve(header)
		_, err := uuid.Parse(w.Header().Get(Header))
		assert.NoError(t, err)
	}
}
