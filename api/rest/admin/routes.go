package admin

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, sweeper Sweeper) {
	admin := router.Group("/admin")

	admin.POST("/sweep", TriggerSweepHandler(sweeper))
	admin.GET("/sweep", LastSweepHandler(sweeper))
}
