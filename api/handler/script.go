package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/telnetscriptpro/telnetscriptpro/internal/database"
	"github.com/telnetscriptpro/telnetscriptpro/internal/service"
)

// ScriptHandler 脚本任务接口
type ScriptHandler struct {
	runner *service.RunnerService
}

// NewScriptHandler 创建处理器
func NewScriptHandler(runner *service.RunnerService) *ScriptHandler {
	return &ScriptHandler{runner: runner}
}

// Health 健康检查
func (h *ScriptHandler) Health(c *gin.Context) {
	if err := database.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// RunScript 同步执行脚本任务，返回完整结果序列
func (h *ScriptHandler) RunScript(c *gin.Context) {
	var req service.ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    1,
			"message": "invalid request: " + err.Error(),
		})
		return
	}

	task, results, err := h.runner.Execute(c.Request.Context(), &req)
	if err != nil {
		resp := gin.H{
			"code":    1,
			"message": err.Error(),
		}
		if task != nil {
			resp["data"] = gin.H{"task_id": task.ID, "results": results}
		}
		// 连接失败与登录失败是业务层面的失败而非接口错误
		c.JSON(http.StatusOK, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"task_id":  task.ID,
			"duration": task.Duration,
			"results":  results,
		},
	})
}

// SubmitScript 异步提交脚本任务，立即返回任务ID
func (h *ScriptHandler) SubmitScript(c *gin.Context) {
	var req service.ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    1,
			"message": "invalid request: " + err.Error(),
		})
		return
	}

	taskID, err := h.runner.Submit(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    1,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "accepted",
		"data":    gin.H{"task_id": taskID},
	})
}

// GetTaskStatus 查询任务状态与结果
func (h *ScriptHandler) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	task, err := h.runner.GetTask(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    1,
				"message": "task not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    1,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    task,
	})
}
