package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"net"
	"net/http"

	"github.com/goldenreel/backend/pkg/crypto"
	"github.com/goldenreel/backend/pkg/errorx"
	"github.com/goldenreel/backend/pkg/router"
	"github.com/goldenreel/backend/pkg/xcontext"
)

const signatureHeader = "X-Signature"

// VerifyWalletCallback authenticates provider callbacks: the source
// address must be on the allow-list and the X-Signature header must
// carry the HMAC-SHA256 of the raw body under the shared secret. The
// body is restored so binding can read it again.
func VerifyWalletCallback() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		req := xcontext.HTTPRequest(ctx)
		cfg := xcontext.Configs(ctx).Wallet

		if !allowedSource(req, cfg.AllowedIPs) {
			xcontext.Logger(ctx).Warnf("Rejected wallet callback from %s", req.RemoteAddr)
			return nil, errorx.New(errorx.PermissionDenied, "Source address is not allowed")
		}

		body, err := io.ReadAll(req.Body)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot read the callback body: %v", err)
			return nil, errorx.Unknown
		}
		req.Body = io.NopCloser(bytes.NewReader(body))

		signature := req.Header.Get(signatureHeader)
		if signature == "" {
			return nil, errorx.New(errorx.Unauthenticated, "Missing the signature header")
		}

		if !crypto.VerifyHMAC(sha256.New, body, []byte(cfg.CallbackSecret), signature) {
			xcontext.Logger(ctx).Warnf("Invalid wallet callback signature from %s", req.RemoteAddr)
			return nil, errorx.New(errorx.Unauthenticated, "Invalid signature")
		}

		return ctx, nil
	}
}

func allowedSource(req *http.Request, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}

	for _, ip := range allowed {
		if ip == host {
			return true
		}
	}

	return false
}
