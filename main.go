package main

import (
	"context"
	"fmt"
	"time"

	"gallery/photo-api/app"
	"gallery/photo-api/config"
	"gallery/photo-api/internal/service"
	"gallery/photo-api/pkg/util"

	"github.com/gin-gonic/gin"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	log, err := util.NewLogger(v.GetString("app.log_level"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	d, err := app.NewDeps(ctx)
	cancel()
	if err != nil {
		zap.L().Fatal("Failed to initialize dependencies", zap.Error(err))
	}

	if *config.PurgeExpired {
		res, err := d.Trash.PurgeExpiredForAllUsers(context.Background())
		if err != nil {
			zap.L().Fatal("Failed to purge expired items", zap.Error(err))
		}

		fmt.Printf("Permanently deleted %d expired item(s), %d error(s)\n", res.DeletedCount(), len(res.Failures))
		return
	}

	c, err := service.TrashCleanup(v.GetString("trash.purge_schedule"), d.Trash)
	if err != nil {
		zap.L().Fatal("Failed to schedule trash cleanup", zap.Error(err))
	}
	defer c.Stop()

	router := app.NewRouter(d)

	zap.L().Info("Server starting", zap.Int("port", v.GetInt("host.port")))

	err = router.Run(fmt.Sprintf(":%d", v.GetInt("host.port")))
	if err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}
