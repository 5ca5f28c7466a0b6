package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ponyfiction/internal/storage"
)

// HealthDeps lists what /healthz checks. MQConn is nil when the broker is disabled.
type HealthDeps struct {
	App       string
	Env       string
	StartedAt time.Time
	DB        *gorm.DB
	Redis     *redis.Client
	MQConn    *amqp.Connection
	Storage   storage.Storage
}

type HealthHandler struct {
	deps HealthDeps
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type bucketChecker interface {
	BucketReachable(ctx context.Context) error
}

func NewHealthHandler(deps HealthDeps) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := h.checkDatabase(ctx)
	redisStatus := h.checkRedis(ctx)
	rmqStatus := h.checkRabbitMQ()
	storageStatus := h.checkStorage(ctx)

	allOK := dbStatus.OK && redisStatus.OK && rmqStatus.OK && storageStatus.OK
	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":        h.deps.App,
		"env":        h.deps.Env,
		"uptime_sec": int(time.Since(h.deps.StartedAt).Seconds()),
		"dependencies": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
			"rabbitmq": rmqStatus,
			"storage":  storageStatus,
		},
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) dependencyStatus {
	if h.deps.DB == nil {
		return dependencyStatus{OK: false, Message: "not configured"}
	}
	sqlDB, err := h.deps.DB.DB()
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if h.deps.Redis == nil {
		return dependencyStatus{OK: false, Message: "not configured"}
	}
	if err := h.deps.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.deps.MQConn == nil {
		return dependencyStatus{OK: true, Message: "disabled"}
	}
	if h.deps.MQConn.IsClosed() {
		return dependencyStatus{OK: false, Message: "connection closed"}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkStorage(ctx context.Context) dependencyStatus {
	checker, ok := h.deps.Storage.(bucketChecker)
	if !ok {
		return dependencyStatus{OK: true}
	}
	if err := checker.BucketReachable(ctx); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}
