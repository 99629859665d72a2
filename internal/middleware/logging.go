package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/billsplit/internal/metrics"
)

// LoggingInterceptor logs one line per RPC and records its code and latency
// in m. Client errors log at warn, anything that is not a *connect.Error at
// error.
func LoggingInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			elapsed := time.Since(start)

			procedure := req.Spec().Procedure
			code, level, msg := outcome(err)
			attrs := []any{
				"procedure", procedure,
				"member_id", GetMemberID(ctx), // empty if pre-auth
				"duration_ms", elapsed.Milliseconds(),
			}
			if err != nil {
				attrs = append(attrs, "code", code, "error", errorMessage(err))
			}
			slog.Log(ctx, level, msg, attrs...)

			m.ObserveRPC(procedure, code, elapsed)
			return resp, err
		}
	}
}

func outcome(err error) (code string, level slog.Level, msg string) {
	if err == nil {
		return "ok", slog.LevelInfo, "RPC ok"
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		level = slog.LevelWarn
		if connectErr.Code() == connect.CodeInternal {
			level = slog.LevelError
		}
		return connectErr.Code().String(), level, "RPC error"
	}
	return connect.CodeUnknown.String(), slog.LevelError, "RPC error"
}

func errorMessage(err error) string {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Message()
	}
	return err.Error()
}
