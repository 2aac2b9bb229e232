// Package main is the entry point for the reacthub server.
package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/CageChen/reacthub/internal/config"
	"github.com/CageChen/reacthub/internal/handler"
	"github.com/CageChen/reacthub/internal/project"
	"github.com/CageChen/reacthub/internal/seed"
	"github.com/CageChen/reacthub/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	log := logrus.WithField("component", "server")

	log.WithFields(logrus.Fields{
		"config":   cfg.GetConfigFilePath(),
		"database": cfg.DatabasePath,
		"react":    cfg.ReactVersion,
	}).Info("reacthub starting")

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer func() { _ = st.Close() }()

	seeds, err := seed.New(cfg.SeedDir, logrus.WithField("component", "seed"))
	if err != nil {
		log.WithError(err).Fatal("failed to load seed template")
	}
	if cfg.WatchSeed && cfg.SeedDir != "" {
		if err := seeds.Watch(); err != nil {
			log.WithError(err).Warn("failed to watch seed template")
		} else {
			defer func() { _ = seeds.Stop() }()
			log.Info("seed template watcher enabled")
		}
	}

	mgr := project.NewManager(cfg, st, seeds, logrus.WithField("component", "project"))

	projectHandler := handler.NewProjectHandler(mgr)
	treeHandler := handler.NewTreeHandler(mgr)
	fileHandler := handler.NewFileHandler(mgr)
	previewHandler := handler.NewPreviewHandler(mgr)
	wsHandler := handler.NewWSHandler()
	mgr.OnPreview(wsHandler.OnPreview)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	api := r.Group("/api")
	{
		api.GET("/projects", projectHandler.ListProjects)
		api.POST("/projects", projectHandler.CreateProject)
		api.GET("/projects/:id", projectHandler.GetProject)
		api.DELETE("/projects/:id", projectHandler.DeleteProject)

		api.GET("/projects/:id/tree", treeHandler.GetTree)
		api.GET("/projects/:id/files/*path", fileHandler.GetFile)
		api.GET("/projects/:id/raw/*path", fileHandler.GetRaw)

		api.POST("/projects/:id/tools/:tool", projectHandler.ExecuteTool)
		api.GET("/projects/:id/preview", previewHandler.GetPreview)

		api.GET("/ws", wsHandler.HandleWS)
	}

	r.GET("/preview/:id", previewHandler.GetSandbox)
	r.GET("/preview/:id/blob/:ref", previewHandler.GetBlob)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("addr", addr).Info("listening")
	if err := r.Run(addr); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
