package logctx

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFromCtx_PrefersAttachedLogger(t *testing.T) {
	base := zap.NewNop().Sugar()
	attached := zap.NewExample().Sugar()

	ctx := WithLogger(context.Background(), attached)
	require.Same(t, attached, FromCtx(ctx, base))
}

func TestFromCtx_FallsBackToBase(t *testing.T) {
	base := zap.NewNop().Sugar()
	require.Same(t, base, FromCtx(context.Background(), base))
}

func TestFromGin_UsesContextLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)

	base := zap.NewNop().Sugar()
	reqLogger := zap.NewExample().Sugar()
	c.Set(KeyLogger, reqLogger)

	require.Same(t, reqLogger, FromGin(c, base))
	require.Same(t, base, FromGin(nil, base))
}
