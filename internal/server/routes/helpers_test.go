package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/charhub/charhub/internal/logging"
	"github.com/charhub/charhub/internal/server"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app, err := server.NewApp(server.AppOptions{Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

// doRequest 发送请求并返回响应与完整响应体。
func doRequest(t *testing.T, app *fiber.App, method, target, contentType, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	return resp, data
}

func decodeJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("decode json failed: %v (body=%s)", err, string(data))
	}
}
