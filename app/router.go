// Package app wires the dependencies and routes of the API
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gallery/photo-api/app/media"
	"gallery/photo-api/app/root"
	"gallery/photo-api/aws"
	"gallery/photo-api/db"
	"gallery/photo-api/internal"
	"gallery/photo-api/internal/metrics"
	"gallery/photo-api/internal/retention"
	"gallery/photo-api/internal/service"
	"gallery/photo-api/internal/storage"
	"gallery/photo-api/internal/store"
	"gallery/photo-api/pkg/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ownsCacheTTL = 30 * time.Second

// NewDeps connects to the database and the asset storage and builds the
// services every handler works with
func NewDeps(ctx context.Context) (*internal.Deps, error) {
	gdb, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	assets, err := newAssetStore(ctx)
	if err != nil {
		return nil, err
	}

	policy, err := service.ParseAssetPolicy(v.GetString("trash.asset_failure_policy"))
	if err != nil {
		return nil, err
	}

	d := &internal.Deps{
		DB:            gdb,
		Store:         store.NewMediaStore(gdb),
		Assets:        assets,
		Metrics:       metrics.New(),
		PublicURL:     v.GetString("storage.public_url"),
		MaxUploadSize: v.GetInt64("upload.max_size"),
		AllowedTypes:  v.GetStringSlice("upload.allowed_types"),
	}

	retentionPolicy := retention.New(
		v.GetInt("trash.retention_days"),
		v.GetInt("trash.warn_days"),
		v.GetString("app.locale"),
	)

	d.Trash = service.NewTrashService(d.Store, assets, retentionPolicy, service.TrashOptions{
		AssetPolicy: policy,
		PublicURL:   d.PublicURL,
		Metrics:     d.Metrics,
	})
	d.Favorites = service.NewFavoriteService(d.Store, d.Metrics)
	d.Uploader = service.NewUploader(d.Store, assets, d.Metrics)

	return d, nil
}

func newAssetStore(ctx context.Context) (storage.AssetStore, error) {
	if v.GetString("storage.type") == "s3" {
		c, err := aws.NewS3(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		return storage.NewS3(c), nil
	}

	l, err := storage.NewLocal(v.GetString("storage.local_path"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage, %w", err)
	}

	return l, nil
}

func newCacheStore() persist.CacheStore {
	if v.GetString("cache.type") == "redis" {
		zap.L().Info("Using redis response cache", zap.String("addr", v.GetString("cache.redis_addr")))

		return persist.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     v.GetString("cache.redis_addr"),
			Password: v.GetString("cache.redis_password"),
			DB:       v.GetInt("cache.redis_db"),
		}))
	}

	return persist.NewMemoryStore(time.Minute)
}

func NewRouter(d *internal.Deps) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     v.GetStringSlice("host.cors"),
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v, ok := c.Get("userID"); ok {
					fields = append(fields, zap.Uint("userID", v.(uint)))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	rateLimit := v.GetInt("security.rate_limit")

	jwt := middleware.NewJWTMiddleware(d.DB, v.GetString("jwt.secret"))
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
		CleanupInterval:   time.Minute,
	})

	// GET /metrics				-> Prometheus metrics
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	if v.GetString("storage.type") == "local" && strings.HasPrefix(d.PublicURL, "/") {
		router.Static(d.PublicURL, v.GetString("storage.local_path"))
	}

	a := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		a.HEAD("/heartbeat", root.Heartbeat)
	}

	// The upload limit applies per file, leave room for several files and the form itself
	bodyLimit := middleware.BodySizeLimiter(d.MaxUploadSize*10 + 1<<20)
	ownsCache := cacheOwns(newCacheStore())

	m := a.Group("/media", jwt)
	{
		// GET /api/media			-> Returns a page of the user's library
		m.GET("", func(c *gin.Context) { media.MediaList(c, d) })

		// GET /api/media/favorites		-> Returns a page of the user's favorites
		m.GET("/favorites", func(c *gin.Context) { media.MediaFavorites(c, d) })

		// GET /api/media/timeline		-> Returns the library grouped by day, month or year
		m.GET("/timeline", func(c *gin.Context) { media.MediaTimeline(c, d) })

		// GET /api/media/trash		-> Lists the trash with days remaining per item
		m.GET("/trash", func(c *gin.Context) { media.MediaTrashList(c, d) })

		// POST /api/media			-> Uploads one or more files
		m.POST("", bodyLimit, func(c *gin.Context) { media.MediaUpload(c, d) })

		// POST /api/media/delete-batch	-> Moves items to the trash
		m.POST("/delete-batch", func(c *gin.Context) { media.MediaDeleteBatch(c, d) })

		// POST /api/media/restore-batch	-> Restores items from the trash
		m.POST("/restore-batch", func(c *gin.Context) { media.MediaRestoreBatch(c, d) })

		// POST /api/media/purge-batch	-> Permanently deletes trashed items
		m.POST("/purge-batch", func(c *gin.Context) { media.MediaPurgeBatch(c, d) })

		// POST /api/media/favorite		-> Adds or removes items from favorites
		m.POST("/favorite", func(c *gin.Context) { media.MediaFavorite(c, d) })

		// GET /api/media/:id/owns		-> Checks if a user owns an item
		m.GET("/:id/owns", ownsCache, func(c *gin.Context) { media.MediaOwns(c, d) })

		// GET /api/media/:id/download	-> Downloads the original file
		m.GET("/:id/download", func(c *gin.Context) { media.MediaDownload(c, d) })
	}

	return router
}

// cacheOwns caches ownership checks keyed by user and URI
func cacheOwns(s persist.CacheStore) gin.HandlerFunc {
	return cache.Cache(s, ownsCacheTTL, cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
		userID, ok := c.Get("userID")
		if !ok {
			return false, cache.Strategy{}
		}

		return true, cache.Strategy{
			CacheKey: fmt.Sprintf("owns:%d:%s", userID.(uint), c.Request.RequestURI),
		}
	}))
}
