package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parikshasetu/exam-platform/internal/client"
	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

type stubValidator struct {
	claims map[string]*models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newProtectedRouter(guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	validator := stubValidator{claims: map[string]*models.JWTClaims{
		"student-token": {UserID: "stu-1", Role: models.RoleStudent},
		"admin-token":   {UserID: "adm-1", Role: models.RoleAdmin},
	}}
	handlers := append([]gin.HandlerFunc{JWT(validator, "svc-secret")}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		claims, _ := c.Get(ContextUserKey)
		c.String(http.StatusOK, string(claims.(*models.JWTClaims).Role))
	})
	r.GET("/things/:studentId", handlers...)
	return r
}

func serve(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	r := newProtectedRouter()

	w := serve(r, "/things/x", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, "/things/x", map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, "/things/x", map[string]string{"Authorization": "Bearer bogus"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, "/things/x", map[string]string{"Authorization": "Bearer student-token"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "STUDENT", w.Body.String())
}

func TestJWTServiceToken(t *testing.T) {
	r := newProtectedRouter()

	w := serve(r, "/things/x", map[string]string{client.ServiceTokenHeader: "svc-secret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SERVICE", w.Body.String())

	w = serve(r, "/things/x", map[string]string{client.ServiceTokenHeader: "wrong", "Authorization": "Bearer admin-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTServiceTokenDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", JWT(stubValidator{}, ""), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, "/x", map[string]string{client.ServiceTokenHeader: ""})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = serve(r, "/x", map[string]string{client.ServiceTokenHeader: "anything"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolesOrSelf(t *testing.T) {
	r := newProtectedRouter(RequireRolesOrSelf("studentId", models.RoleAdmin, models.RoleService))

	w := serve(r, "/things/stu-1", map[string]string{"Authorization": "Bearer student-token"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, "/things/stu-2", map[string]string{"Authorization": "Bearer student-token"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, "/things/stu-2", map[string]string{"Authorization": "Bearer admin-token"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, "/things/stu-2", map[string]string{client.ServiceTokenHeader: "svc-secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, "/x", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type recordingObserver struct {
	mu    sync.Mutex
	paths []string
	codes []int
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paths = append(o.paths, method+" "+path)
	o.codes = append(o.codes, status)
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/exams/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	serve(r, "/exams/42", nil)
	serve(r, "/missing", nil)

	assert.Equal(t, []string{"GET /exams/:id", "GET /missing"}, observer.paths)
	assert.Equal(t, []int{http.StatusTeapot, http.StatusNotFound}, observer.codes)
}
