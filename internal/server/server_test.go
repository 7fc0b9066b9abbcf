package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-stock-ledger/internal/auth"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type echoRoutes struct{}

func (echoRoutes) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, auth.GetUserID(c.Request.Context()))
	})
	router.POST("/things", func(c *gin.Context) {
		c.String(http.StatusCreated, auth.GetUserID(c.Request.Context()))
	})
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})
}

func do(t *testing.T, r http.Handler, method, path, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	if user != "" {
		req.Header.Set(auth.HeaderUserID, user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(logger.NewNop(), echoRoutes{})
}

func TestHealthz(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestPrincipalPropagates(t *testing.T) {
	r := newTestRouter()

	w := do(t, r, http.MethodGet, "/api/v1/whoami", "u-7")
	assert.Equal(t, "u-7", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	w = do(t, r, http.MethodPost, "/api/v1/things", "u-7")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u-7", w.Body.String())
}

func TestMutationWithoutPrincipalIsRejected(t *testing.T) {
	r := newTestRouter()

	w := do(t, r, http.MethodPost, "/api/v1/things", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w = do(t, r, http.MethodGet, "/api/v1/whoami", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodGet, "/api/v1/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGRPCHealth(t *testing.T) {
	srv, _ := NewGRPCServer(logger.NewNop())
	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
