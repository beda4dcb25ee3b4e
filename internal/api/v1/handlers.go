package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"billhive/internal/pkg/cache"
	"billhive/internal/pkg/database"
	"billhive/internal/pkg/messaging"
)

// OpsServer exposes the operational endpoints of the worker: liveness
// plus a per-queue depth view for dashboards and alerting.
type OpsServer struct {
	broker  messaging.Broker
	manager *messaging.Manager
}

// NewOpsServer creates a new ops server instance
func NewOpsServer(broker messaging.Broker, manager *messaging.Manager) *OpsServer {
	return &OpsServer{broker: broker, manager: manager}
}

// Register mounts the ops routes on the given app.
func (s *OpsServer) Register(app *fiber.App) {
	app.Get("/healthz", s.GetHealth)
	app.Get("/queues", s.GetQueues)
}

// GetHealth reports whether the database and the queue transport are
// reachable. Returns 503 when either dependency is down.
func (s *OpsServer) GetHealth(c *fiber.Ctx) error {
	status := fiber.StatusOK
	dbStatus := "ok"
	cacheStatus := "ok"

	if sqlDB, err := database.GetDB().DB(); err != nil {
		dbStatus = err.Error()
		status = fiber.StatusServiceUnavailable
	} else if err := sqlDB.PingContext(c.Context()); err != nil {
		dbStatus = err.Error()
		status = fiber.StatusServiceUnavailable
	}

	if err := cache.Ping(c.Context()); err != nil {
		cacheStatus = err.Error()
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}

// GetQueues returns pending, processing and dead-letter depths for
// every registered queue.
func (s *OpsServer) GetQueues(c *fiber.Ctx) error {
	stats := make(map[string]messaging.QueueStats)
	for _, queue := range s.manager.Queues() {
		qs, err := s.broker.Stats(c.Context(), queue)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": err.Error(),
				"queue": queue,
			})
		}
		stats[queue] = qs
	}
	return c.JSON(stats)
}
