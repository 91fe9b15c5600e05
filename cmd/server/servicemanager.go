package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wso2/openbanking-berlin-consent/internal/authorisation"
	"github.com/wso2/openbanking-berlin-consent/internal/authresource"
	"github.com/wso2/openbanking-berlin-consent/internal/consent"
	"github.com/wso2/openbanking-berlin-consent/internal/idempotency"
	"github.com/wso2/openbanking-berlin-consent/internal/sca"
	"github.com/wso2/openbanking-berlin-consent/internal/system/cache"
	"github.com/wso2/openbanking-berlin-consent/internal/system/config"
	"github.com/wso2/openbanking-berlin-consent/internal/system/database"
	"github.com/wso2/openbanking-berlin-consent/internal/system/database/provider"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
	"github.com/wso2/openbanking-berlin-consent/internal/system/metrics"
	"github.com/wso2/openbanking-berlin-consent/internal/system/middleware"
	"github.com/wso2/openbanking-berlin-consent/internal/system/stores"
	"github.com/wso2/openbanking-berlin-consent/internal/system/utils"
)

// newIdempotencyCache builds the configured cache backend. The returned redis client is nil
// for the memory backend.
func newIdempotencyCache(ctx context.Context, cfg *config.Config) (idempotency.Cache, *cache.Client, error) {
	if cfg.Idempotency.Cache.Type != config.CacheTypeRedis {
		return idempotency.NewMemoryCache(), nil, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("idempotency cache: %w", err)
	}
	return idempotency.NewRedisCache(client.Client, cfg.Idempotency.Cache.KeyPrefix, cfg.Idempotency.Cache.Retention),
		client, nil
}

// registerServices wires every module onto the router.
func registerServices(
	router *gin.Engine,
	cfg *config.Config,
	db *database.DB,
	idempotencyCache idempotency.Cache,
	redisClient *cache.Client,
	m *metrics.Metrics,
) {
	logger := log.GetLogger()
	clock := utils.Clock(utils.SystemClock)

	dbClient := provider.NewDBClient(db.DB, db.Type())
	registry := stores.NewStoreRegistry(dbClient, consent.NewStore(dbClient), authresource.NewStore(dbClient))
	resolver := sca.NewResolver(cfg.SCA)

	validator := idempotency.NewValidator(idempotencyCache, cfg.Idempotency, clock)
	router.Use(middleware.CorrelationIDMiddleware())
	if cfg.CORS.Enabled {
		router.Use(middleware.CORSMiddleware(cfg.CORS))
	}
	router.Use(idempotency.Middleware(validator, cfg.Idempotency, m))
	logger.Info("Idempotency handling configured",
		log.Bool("enabled", cfg.Idempotency.Enabled),
		log.String("cache", cfg.Idempotency.Cache.Type))

	core := consent.NewCoreService(registry, clock)

	_ = consent.Initialize(router, registry, core, resolver, cfg.SCA, m, clock)
	logger.Info("Consent module initialized")

	_ = authresource.Initialize(router, registry, resolver, cfg.SCA, clock)
	logger.Info("AuthResource module initialized")

	_ = authorisation.Initialize(router, core, cfg.Consent, m)
	logger.Info("Authorisation module initialized")

	router.GET("/health", func(c *gin.Context) {
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}
}
