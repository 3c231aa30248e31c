package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a middleware that logs each HTTP request as one structured entry.
// Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
func Logger(log *zap.Logger) fiber.Handler {
	log = log.With(zap.String("component", "http"))

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Resolve the final status the error handler will write.
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := []zap.Field{
			zap.String("request_id", RequestIDFrom(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Float64("latency", float64(time.Since(start).Microseconds())/1000),
		}
		if uid, ok := c.Locals(UserIDLocalKey).(string); ok {
			fields = append(fields, zap.String("user_id", uid))
		}

		if status >= fiber.StatusInternalServerError {
			log.Warn("http_request", fields...)
		} else {
			log.Info("http_request", fields...)
		}
		return err
	}
}

// LoggerWithWriter writes one JSON object per request to w, with the
// timestamp rendered in loc under "ts".
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format(time.RFC3339Nano))
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), zapcore.InfoLevel)
	return Logger(zap.New(core))
}
