package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/omni/pds-gateway/gateway"
)

type ctxKey int

const (
	bandParamsCtxKey ctxKey = iota
	userIPCtxKey
)

// GetCallerMiddleware extracts the BAND_* headers and the caller IP.
func GetCallerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, bandParamsCtxKey, gateway.BandParams(r.Header))
		ctx = context.WithValue(ctx, userIPCtxKey, remoteIP(r.RemoteAddr))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func BandParams(ctx context.Context) map[string]string {
	if params, ok := ctx.Value(bandParamsCtxKey).(map[string]string); ok {
		return params
	}
	return map[string]string{}
}

func UserIP(ctx context.Context) string {
	if ip, ok := ctx.Value(userIPCtxKey).(string); ok {
		return ip
	}
	return ""
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
