package api

import (
	"github.com/gin-gonic/gin"

	"github.com/GS-Bacon/claude-todo/internal/service"
)

// Server exposes the task hub over HTTP.
type Server struct {
	tasks         *service.TaskService
	mentions      *service.MentionService
	notifications *service.NotificationService
	engine        *gin.Engine
}

func NewServer(tasks *service.TaskService, mentions *service.MentionService, notifications *service.NotificationService) *Server {
	s := &Server{
		tasks:         tasks,
		mentions:      mentions,
		notifications: notifications,
		engine:        gin.Default(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	tasks := s.engine.Group("/tasks")
	{
		tasks.GET("", s.handleListTasks)
		tasks.POST("", s.handleCreateTask)
		tasks.POST("/sync", s.handleSyncTasks)
		tasks.GET("/due/today", s.handleDueToday)
		tasks.GET("/overdue", s.handleOverdue)
		tasks.GET("/:id", s.handleGetTask)
		tasks.PATCH("/:id", s.handleUpdateTask)
		tasks.PATCH("/:id/status", s.handleUpdateStatus)
		tasks.DELETE("/:id", s.handleDeleteTask)
	}

	webhooks := s.engine.Group("/webhooks")
	{
		webhooks.GET("/health", s.handleWebhookHealth)
		webhooks.POST("/slack", s.handleSlackWebhook)
		webhooks.POST("/discord", s.handleDiscordWebhook)
	}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
