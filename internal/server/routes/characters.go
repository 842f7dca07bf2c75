package routes

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/charhub/charhub/internal/catalog"
	"github.com/charhub/charhub/internal/imagecache"
	"github.com/charhub/charhub/internal/server"
	"github.com/charhub/charhub/internal/thumbnail"
)

// CharacterStore 是角色路由所需的持久化能力。
type CharacterStore interface {
	List(ctx context.Context) ([]*catalog.Character, error)
	Get(ctx context.Context, id string) (*catalog.Character, error)
	Create(ctx context.Context, c *catalog.Character) (*catalog.Character, error)
	Update(ctx context.Context, c *catalog.Character) (*catalog.Character, error)
	Delete(ctx context.Context, id string) error
}

// ImageMaterializer 将实体的远程图片替换为本地缓存 URL。
type ImageMaterializer interface {
	MaterializeForEntities(ctx context.Context, entities []imagecache.ImageEntity, group string) int
}

// ThumbnailPreparer 为实体批量准备缩略图。
type ThumbnailPreparer interface {
	PrepareForEntities(ctx context.Context, entities []thumbnail.Entity, width, height int) thumbnail.Batch
}

// CharacterDeps 汇总角色路由的依赖；Images/Thumbs 可为空，此时列表直接返回原始 URL。
type CharacterDeps struct {
	Store       CharacterStore
	Images      ImageMaterializer
	Thumbs      ThumbnailPreparer
	ImageGroup  string
	ThumbWidth  int
	ThumbHeight int
	Logger      *logrus.Logger
}

type characterList struct {
	Characters []*catalog.Character `json:"characters"`
	Thumbnails *thumbnail.Batch     `json:"thumbnails,omitempty"`
}

// RegisterCharacterRoutes 注册 /api/characters 下的 CRUD 路由。
func RegisterCharacterRoutes(app *fiber.App, deps CharacterDeps) {
	if app == nil || deps.Store == nil {
		return
	}
	h := &characterHandler{deps: deps}

	app.Get("/api/characters", h.list)
	app.Post("/api/characters", h.create)
	app.Get("/api/characters/:id", h.get)
	app.Put("/api/characters/:id", h.update)
	app.Delete("/api/characters/:id", h.remove)
}

type characterHandler struct {
	deps CharacterDeps
}

func (h *characterHandler) list(c fiber.Ctx) error {
	ctx := c.Context()
	characters, err := h.deps.Store.List(ctx)
	if err != nil {
		return h.fail(c, "character_list", err)
	}

	if h.deps.Images != nil {
		entities := make([]imagecache.ImageEntity, 0, len(characters))
		for _, ch := range characters {
			entities = append(entities, ch)
		}
		h.deps.Images.MaterializeForEntities(ctx, entities, h.deps.ImageGroup)
	}

	payload := characterList{Characters: characters}
	if h.deps.Thumbs != nil {
		entities := make([]thumbnail.Entity, 0, len(characters))
		for _, ch := range characters {
			entities = append(entities, ch)
		}
		batch := h.deps.Thumbs.PrepareForEntities(ctx, entities, h.deps.ThumbWidth, h.deps.ThumbHeight)
		payload.Thumbnails = &batch
	}
	return c.JSON(payload)
}

func (h *characterHandler) get(c fiber.Ctx) error {
	ch, err := h.deps.Store.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "character_get", err)
	}
	return c.JSON(ch)
}

func (h *characterHandler) create(c fiber.Ctx) error {
	var input catalog.Character
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return server.WriteError(c, fiber.StatusBadRequest, "invalid_json")
	}
	input.ID = ""
	created, err := h.deps.Store.Create(c.Context(), &input)
	if err != nil {
		return h.fail(c, "character_create", err)
	}
	h.logger().WithFields(logrus.Fields{
		"action":     "character_create",
		"request_id": server.RequestID(c),
		"id":         created.ID,
	}).Info("character_created")
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *characterHandler) update(c fiber.Ctx) error {
	var input catalog.Character
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return server.WriteError(c, fiber.StatusBadRequest, "invalid_json")
	}
	input.ID = c.Params("id")
	updated, err := h.deps.Store.Update(c.Context(), &input)
	if err != nil {
		return h.fail(c, "character_update", err)
	}
	return c.JSON(updated)
}

func (h *characterHandler) remove(c fiber.Ctx) error {
	id := c.Params("id")
	if err := h.deps.Store.Delete(c.Context(), id); err != nil {
		return h.fail(c, "character_delete", err)
	}
	h.logger().WithFields(logrus.Fields{
		"action":     "character_delete",
		"request_id": server.RequestID(c),
		"id":         id,
	}).Info("character_deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

// fail 将领域错误映射为 HTTP 状态码。
func (h *characterHandler) fail(c fiber.Ctx, action string, err error) error {
	var vErr *catalog.ValidationError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return server.WriteError(c, fiber.StatusNotFound, "character_not_found")
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "validation_failed",
			"problems": vErr.Problems,
		})
	default:
		h.logger().WithError(err).WithFields(logrus.Fields{
			"action":     action,
			"request_id": server.RequestID(c),
		}).Error("character_store_failed")
		return server.WriteError(c, fiber.StatusInternalServerError, "internal_server_error")
	}
}

func (h *characterHandler) logger() *logrus.Logger {
	if h.deps.Logger != nil {
		return h.deps.Logger
	}
	return logrus.StandardLogger()
}
