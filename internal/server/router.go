package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AppOptions controls how the Fiber application is assembled. ImageDir and
// ImageURL are optional; when both are set the image tree is served statically.
type AppOptions struct {
	Logger   *logrus.Logger
	ImageDir string
	ImageURL string
}

const contextKeyRequestID = "_charhub_request_id"

// NewApp builds a Fiber application with panic recovery, request ids and
// structured error responses. Callers register API routes on the result.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ErrorHandler:  errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts.Logger))

	if opts.ImageDir != "" && opts.ImageURL != "" {
		prefix := "/" + strings.Trim(opts.ImageURL, "/")
		app.Get(prefix+"*", static.New(opts.ImageDir))
	}

	return app, nil
}

// requestContextMiddleware 生成请求 ID 并在请求结束后记录访问日志。
func requestContextMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		started := time.Now()
		err := c.Next()

		logger.WithFields(logrus.Fields{
			"action":      "http_request",
			"request_id":  reqID,
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      c.Response().StatusCode(),
			"duration_ms": time.Since(started).Milliseconds(),
		}).Debug("request_completed")
		return err
	}
}

// errorHandler 将未处理的错误统一渲染为 {"error": ...}。
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
		code := strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
		if code == "" {
			code = "error"
		}
		if status >= fiber.StatusInternalServerError {
			logger.WithError(err).WithFields(logrus.Fields{
				"action":     "http_request",
				"request_id": RequestID(c),
				"path":       c.Path(),
			}).Error("request_failed")
		}
		return WriteError(c, status, code)
	}
}

// WriteError 输出统一格式的 JSON 错误。
func WriteError(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
