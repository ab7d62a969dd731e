package router

import (
	"ai_content/controller"

	"github.com/gin-gonic/gin"
)

func addApiRouter(engine *gin.Engine) {

	// 内容任务 API
	api := engine.Group("/api/v1")
	{
		// 任务生命周期
		api.POST("/content", controller.CreateContent)
		api.GET("/content/:task_id", controller.GetContent)
		api.GET("/contents", controller.ListContents)
		api.GET("/contents/stats", controller.GetContentStats)
		api.POST("/content/:task_id/cancel", controller.CancelContent)

		// 人工审核与发布
		api.POST("/content/:task_id/approval", controller.SubmitApproval)
		api.POST("/content/:task_id/publish", controller.RetryPublish)

		// 成本预估
		api.POST("/content/estimate", controller.EstimateContentCost)

		// 进度事件流
		api.GET("/content/:task_id/events", controller.StreamContentEvents)
	}
}
