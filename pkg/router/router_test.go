package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goldenreel/backend/config"
	"github.com/goldenreel/backend/pkg/errorx"
	"github.com/goldenreel/backend/pkg/logger"
	"github.com/goldenreel/backend/pkg/router"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type rawResponse struct {
	Result int `json:"result"`
}

func newTestRouter(t *testing.T) *router.Router {
	db, err := gorm.Open(sqlite.Open("file:routertest?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	return router.New(db, config.Configs{}, logger.NewLogger(logger.ERROR))
}

func Test_Router_FailingBeforeMiddleware(t *testing.T) {
	r := newTestRouter(t)

	branch := r.Branch()
	branch.Before(func(ctx context.Context) (context.Context, error) {
		return nil, errorx.New(errorx.Unauthenticated, "Invalid signature")
	})

	// The closers must still run with a usable context even when a
	// middleware failed.
	closerCtxWasNil := true
	branch.AddCloser(func(ctx context.Context) {
		closerCtxWasNil = ctx == nil
	})

	handlerCalled := false
	router.RawPOST(branch, "/wallet/callback",
		func(ctx context.Context, req *struct{}) (*rawResponse, error) {
			handlerCalled = true
			return &rawResponse{Result: 0}, nil
		},
		func(err error) *rawResponse {
			return &rawResponse{Result: 3}
		},
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/wallet/callback", strings.NewReader(`{}`))
	r.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"result":3}`, w.Body.String())
	require.False(t, handlerCalled)
	require.False(t, closerCtxWasNil)
}

func Test_Router_PassingBeforeMiddleware(t *testing.T) {
	r := newTestRouter(t)

	branch := r.Branch()
	branch.Before(func(ctx context.Context) (context.Context, error) {
		return ctx, nil
	})

	router.RawPOST(branch, "/wallet/callback",
		func(ctx context.Context, req *struct{}) (*rawResponse, error) {
			return &rawResponse{Result: 0}, nil
		},
		func(err error) *rawResponse {
			return &rawResponse{Result: 3}
		},
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/wallet/callback", strings.NewReader(`{}`))
	r.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"result":0}`, w.Body.String())
}
