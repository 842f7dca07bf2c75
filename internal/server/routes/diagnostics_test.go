package routes

import (
	"context"
	"errors"
	"testing"

	"github.com/gofiber/fiber/v3"
)

type stubProbe bool

func (s stubProbe) IsWorkerReachable(context.Context) bool { return bool(s) }

type stubCounter struct {
	n   int
	err error
}

func (s stubCounter) Count(context.Context) (int, error) { return s.n, s.err }

func TestDiagnosticsStatus(t *testing.T) {
	app := newTestApp(t)
	RegisterDiagnosticsRoutes(app, DiagnosticsInfo{
		Version:        "charhub test",
		ImageURL:       "/img",
		ThumbExtension: ".webp",
		Worker:         stubProbe(true),
		Catalog:        stubCounter{n: 3},
	})

	resp, data := doRequest(t, app, fiber.MethodGet, "/-/status", "", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload statusPayload
	decodeJSON(t, data, &payload)
	if !payload.WorkerReachable || payload.Characters == nil || *payload.Characters != 3 {
		t.Fatalf("unexpected payload: %s", string(data))
	}
	if payload.Version != "charhub test" || payload.ThumbExtension != ".webp" {
		t.Fatalf("unexpected payload: %s", string(data))
	}
}

func TestDiagnosticsStatusToleratesCountFailure(t *testing.T) {
	app := newTestApp(t)
	RegisterDiagnosticsRoutes(app, DiagnosticsInfo{Catalog: stubCounter{err: errors.New("db down")}})

	_, data := doRequest(t, app, fiber.MethodGet, "/-/status", "", "")
	var payload statusPayload
	decodeJSON(t, data, &payload)
	if payload.Characters != nil || payload.WorkerReachable {
		t.Fatalf("count 失败时 characters 应为 null: %s", string(data))
	}
}
