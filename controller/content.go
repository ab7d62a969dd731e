package controller

import (
	"io"
	"net/http"
	"time"

	"ai_content/model"
	"ai_content/pkg/content"
	servicefactory "ai_content/service/factory"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// getContentService 获取内容任务服务单例
func getContentService() *content.Service {
	return servicefactory.GetServiceFactory().NewContentService()
}

// respondError 按错误码映射 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch model.CodeOf(err) {
	case model.ErrorValidation, model.ErrorEmptyId:
		status = http.StatusBadRequest
	case model.ErrorTaskNotFound:
		status = http.StatusNotFound
	case model.ErrorState, model.ErrorLockHeld:
		status = http.StatusConflict
	case model.ErrorProvider, model.ErrorPublish:
		status = http.StatusBadGateway
	}

	body := gin.H{"error": err.Error()}
	if code := model.CodeOf(err); code != 0 {
		body["code"] = code
	}
	ctx.JSON(status, body)
}

// CreateContent 创建内容任务
// @Summary 创建内容生成任务
// @Description 创建任务并返回成本预估，任务由工作池异步执行
// @Tags Content
// @Accept json
// @Produce json
// @Param request body content.GenerateRequest true "生成请求"
// @Success 200 {object} content.GenerateResponse
// @Router /api/v1/content [post]
func CreateContent(ctx *gin.Context) {
	var req content.GenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := getContentService().CreateTask(ctx, &req)
	if err != nil {
		log.Errorf("CreateContent error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// GetContent 获取任务详情
// @Summary 获取内容任务详情
// @Description 根据任务ID获取任务详情，包含质量历史和审核记录
// @Tags Content
// @Produce json
// @Param task_id path string true "任务ID"
// @Success 200 {object} content.Task
// @Router /api/v1/content/{task_id} [get]
func GetContent(ctx *gin.Context) {
	task, err := getContentService().GetTask(ctx.Param("task_id"))
	if err != nil {
		log.Errorf("GetContent error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

// ListContents 列出任务
// @Summary 列出内容任务
// @Description 按状态过滤并分页列出任务
// @Tags Content
// @Produce json
// @Param status query string false "任务状态"
// @Param offset query int false "偏移量"
// @Param limit query int false "每页数量"
// @Success 200 {object} gin.H
// @Router /api/v1/contents [get]
func ListContents(ctx *gin.Context) {
	filter := &content.TaskFilter{
		Offset: cast.ToInt(ctx.Query("offset")),
		Limit:  cast.ToInt(ctx.Query("limit")),
	}
	if statusParam := ctx.Query("status"); statusParam != "" {
		status := content.TaskStatus(statusParam)
		if !status.IsValid() {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + statusParam})
			return
		}
		filter.Status = &status
	}

	tasks, total, err := getContentService().ListTasks(filter)
	if err != nil {
		log.Errorf("ListContents error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": total})
}

// GetContentStats 任务统计
// @Summary 按状态统计任务数量
// @Description 返回各状态下的任务数量和总数
// @Tags Content
// @Produce json
// @Success 200 {object} model.TaskStats
// @Router /api/v1/contents/stats [get]
func GetContentStats(ctx *gin.Context) {
	stats, err := getContentService().GetStats()
	if err != nil {
		log.Errorf("GetContentStats error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// SubmitApproval 提交审核决定
// @Summary 提交人工审核决定
// @Description 通过或拒绝待审核任务，通过后自动发布
// @Tags Content
// @Accept json
// @Produce json
// @Param task_id path string true "任务ID"
// @Param request body content.ApprovalRequest true "审核请求"
// @Success 200 {object} content.Task
// @Router /api/v1/content/{task_id}/approval [post]
func SubmitApproval(ctx *gin.Context) {
	var req content.ApprovalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := getContentService().SubmitDecision(ctx, ctx.Param("task_id"), &req)
	if err != nil {
		log.Errorf("SubmitApproval error: %v", err)
		// 发布失败时审核结果已生效，连同任务一起返回
		if task != nil && model.IsCode(err, model.ErrorPublish) {
			ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": model.ErrorPublish, "task": task})
			return
		}
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

// RetryPublish 重试发布
// @Summary 重试发布
// @Description 对发布失败的已审核任务重新发布
// @Tags Content
// @Produce json
// @Param task_id path string true "任务ID"
// @Success 200 {object} content.Task
// @Router /api/v1/content/{task_id}/publish [post]
func RetryPublish(ctx *gin.Context) {
	task, err := getContentService().RetryPublish(ctx, ctx.Param("task_id"))
	if err != nil {
		log.Errorf("RetryPublish error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

// CancelContent 取消任务
// @Summary 取消内容任务
// @Description 取消非终态任务，运行中的任务会被打断
// @Tags Content
// @Produce json
// @Param task_id path string true "任务ID"
// @Success 200 {object} content.Task
// @Router /api/v1/content/{task_id}/cancel [post]
func CancelContent(ctx *gin.Context) {
	task, err := getContentService().CancelTask(ctx, ctx.Param("task_id"))
	if err != nil {
		log.Errorf("CancelContent error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, task)
}

// EstimateContentCost 成本预估
// @Summary 成本预估
// @Description 不创建任务，预估给定参数下整条流水线的成本
// @Tags Content
// @Accept json
// @Produce json
// @Param request body content.EstimateRequest true "预估请求"
// @Success 200 {object} content.EstimateResponse
// @Router /api/v1/content/estimate [post]
func EstimateContentCost(ctx *gin.Context) {
	var req content.EstimateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := getContentService().EstimateCost(&req)
	if err != nil {
		log.Errorf("EstimateContentCost error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// StreamContentEvents 进度事件流
// @Summary 订阅任务进度事件
// @Description 以 SSE 推送指定任务的进度事件，任务进入终态后结束
// @Tags Content
// @Produce text/event-stream
// @Param task_id path string true "任务ID"
// @Router /api/v1/content/{task_id}/events [get]
func StreamContentEvents(ctx *gin.Context) {
	taskID := ctx.Param("task_id")
	svc := getContentService()

	task, err := svc.GetTask(taskID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")

	// 先推一条当前状态，终态任务无后续事件直接结束
	ctx.SSEvent("progress", gin.H{"task_id": task.ID, "status": task.Status, "phase": task.CurrentPhase})
	ctx.Writer.Flush()
	if task.Status.IsTerminal() {
		return
	}

	events, unsubscribe := svc.SubscribeProgress()
	defer unsubscribe()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Request.Context().Done():
			return false
		case <-heartbeat.C:
			ctx.SSEvent("heartbeat", time.Now().Unix())
			return true
		case event, ok := <-events:
			if !ok {
				return false
			}
			if event.TaskID != taskID {
				return true
			}
			ctx.SSEvent("progress", event)
			return event.Percent < 100
		}
	})
}
