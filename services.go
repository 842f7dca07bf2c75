package main

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/charhub/charhub/internal/cache"
	"github.com/charhub/charhub/internal/catalog"
	"github.com/charhub/charhub/internal/config"
	"github.com/charhub/charhub/internal/imagecache"
	"github.com/charhub/charhub/internal/pathmap"
	"github.com/charhub/charhub/internal/server"
	"github.com/charhub/charhub/internal/server/routes"
	"github.com/charhub/charhub/internal/thumbnail"
	"github.com/charhub/charhub/internal/version"
)

// services 持有进程级共享的依赖实例。
type services struct {
	mapper     *pathmap.Mapper
	catalog    *catalog.Store
	images     *imagecache.Cache
	dispatcher *thumbnail.Dispatcher
	reconciler *thumbnail.Reconciler
}

func buildServices(cfg *config.Config, logger *logrus.Logger) (*services, error) {
	mapper := pathmap.FromConfig(cfg)

	store, err := catalog.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("打开目录数据库失败: %w", err)
	}

	imageStore, err := cache.NewStore(mapper.ImageDir())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("初始化图片目录失败: %w", err)
	}

	downloadClient, err := server.NewDownloadClient(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	images, err := imagecache.New(imagecache.Options{
		Store:     imageStore,
		Mapper:    mapper,
		Client:    downloadClient,
		Logger:    logger,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	workerClient, err := server.NewWorkerClient(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	dispatcher, err := thumbnail.NewDispatcher(thumbnail.Options{
		Config: cfg,
		Mapper: mapper,
		Client: workerClient,
		Logger: logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &services{
		mapper:     mapper,
		catalog:    store,
		images:     images,
		dispatcher: dispatcher,
		reconciler: thumbnail.NewReconciler(dispatcher.Layout(), logger),
	}, nil
}

// Close 释放数据库连接。
func (s *services) Close() {
	if s != nil && s.catalog != nil {
		_ = s.catalog.Close()
	}
}

// newHTTPApp 组装 Fiber 应用并注册全部路由。
func newHTTPApp(cfg *config.Config, svc *services, logger *logrus.Logger) (*fiber.App, error) {
	app, err := server.NewApp(server.AppOptions{
		Logger:   logger,
		ImageDir: svc.mapper.ImageDir(),
		ImageURL: svc.mapper.ImageURL(),
	})
	if err != nil {
		return nil, err
	}

	routes.RegisterCharacterRoutes(app, routes.CharacterDeps{
		Store:       svc.catalog,
		Images:      svc.images,
		Thumbs:      svc.dispatcher,
		ImageGroup:  cfg.ImageGroup,
		ThumbWidth:  cfg.ThumbWidth,
		ThumbHeight: cfg.ThumbHeight,
		Logger:      logger,
	})
	routes.RegisterThumbStatusRoutes(app, svc.reconciler, logger)
	routes.RegisterDiagnosticsRoutes(app, routes.DiagnosticsInfo{
		Version:        version.Full(),
		ImageDir:       svc.mapper.ImageDir(),
		ImageURL:       svc.mapper.ImageURL(),
		ImageGroup:     cfg.ImageGroup,
		ThumbExtension: cfg.ThumbExtension,
		Worker:         svc.dispatcher,
		Catalog:        svc.catalog,
	})
	return app, nil
}
