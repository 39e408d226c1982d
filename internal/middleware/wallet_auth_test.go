package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goldenreel/backend/pkg/crypto"
	"github.com/goldenreel/backend/pkg/errorx"
	"github.com/goldenreel/backend/pkg/testutil"
	"github.com/goldenreel/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func callbackContext(body []byte, signature string) context.Context {
	ctx := testutil.NewMockContext()

	req := httptest.NewRequest(http.MethodPost, "/wallet/callback", bytes.NewReader(body))
	req.RemoteAddr = "203.0.113.7:52011"
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}

	return xcontext.WithHTTPRequest(ctx, req)
}

func Test_VerifyWalletCallback_ValidSignature(t *testing.T) {
	body := []byte(`{"action":"balance","login":"player-one","currency":"USD"}`)
	signature := crypto.HMAC(sha256.New, body, []byte("callback-secret"))
	ctx := callbackContext(body, signature)

	gotCtx, err := VerifyWalletCallback()(ctx)
	require.NoError(t, err)
	require.NotNil(t, gotCtx)

	// The body must survive verification for the handler to bind it.
	restored, err := io.ReadAll(xcontext.HTTPRequest(gotCtx).Body)
	require.NoError(t, err)
	require.Equal(t, body, restored)
}

func Test_VerifyWalletCallback_RejectsBadSignature(t *testing.T) {
	body := []byte(`{"action":"debit","login":"player-one","amount":"10"}`)

	for name, signature := range map[string]string{
		"missing": "",
		"forged":  crypto.HMAC(sha256.New, body, []byte("wrong-secret")),
		"stale":   crypto.HMAC(sha256.New, []byte(`{"action":"debit"}`), []byte("callback-secret")),
	} {
		ctx := callbackContext(body, signature)

		_, err := VerifyWalletCallback()(ctx)
		require.Error(t, err, name)

		errx := errorx.Error{}
		require.ErrorAs(t, err, &errx, name)
		require.Equal(t, errorx.Unauthenticated, errx.Code, name)
	}
}

func Test_VerifyWalletCallback_SourceAllowList(t *testing.T) {
	body := []byte(`{"action":"balance","login":"player-one","currency":"USD"}`)
	signature := crypto.HMAC(sha256.New, body, []byte("callback-secret"))

	ctx := callbackContext(body, signature)
	cfg := xcontext.Configs(ctx)
	cfg.Wallet.AllowedIPs = []string{"198.51.100.1"}
	ctx = xcontext.WithConfigs(ctx, cfg)

	_, err := VerifyWalletCallback()(ctx)
	errx := errorx.Error{}
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.PermissionDenied, errx.Code)

	cfg.Wallet.AllowedIPs = []string{"198.51.100.1", "203.0.113.7"}
	ctx = xcontext.WithConfigs(ctx, cfg)

	_, err = VerifyWalletCallback()(ctx)
	require.NoError(t, err)
}
