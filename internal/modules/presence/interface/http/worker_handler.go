package handler

import (
	"time"

	"PulseLink/internal/modules/presence/application/service"
	"PulseLink/internal/modules/presence/infrastructure/worker"
	"PulseLink/pkg/back"
	"PulseLink/pkg/xerr"
	"PulseLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type WorkerHandler struct {
	supervisor *service.WorkerSupervisor
}

func NewWorkerHandler(supervisor *service.WorkerSupervisor) *WorkerHandler {
	return &WorkerHandler{supervisor: supervisor}
}

func (h *WorkerHandler) Start(c *gin.Context) {
	accountId := c.Param("account_id")
	if accountId == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	started, err := h.supervisor.StartWorker(c.Request.Context(), accountId)
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, gin.H{"started": started})
}

func (h *WorkerHandler) Stop(c *gin.Context) {
	accountId := c.Param("account_id")
	if accountId == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	if !h.supervisor.StopWorker(c.Request.Context(), accountId) {
		back.Result(c, nil, xerr.ErrWorkerNotFound)
		return
	}
	back.Success(c, gin.H{"stopped": true})
}

func (h *WorkerHandler) Status(c *gin.Context) {
	accountId := c.Param("account_id")
	if accountId == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	snapshot, ok := h.supervisor.GetWorkerStatus(accountId)
	if !ok {
		back.Result(c, nil, xerr.ErrWorkerNotFound)
		return
	}
	back.Success(c, snapshot)
}

func (h *WorkerHandler) AllStatus(c *gin.Context) {
	back.Success(c, h.supervisor.GetAllWorkersStatus())
}

func (h *WorkerHandler) Metrics(c *gin.Context) {
	back.Success(c, h.supervisor.GetMetrics())
}

type updateSettingsRequest struct {
	AutoReconnect         bool `json:"auto_reconnect"`
	StatusIntervalSeconds int  `json:"status_interval_seconds" binding:"required,min=5"`
}

func (h *WorkerHandler) UpdateSettings(c *gin.Context) {
	accountId := c.Param("account_id")
	if accountId == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	var req updateSettingsRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	ok := h.supervisor.UpdateWorkerSettings(c.Request.Context(), accountId, worker.Settings{
		AutoReconnect:  req.AutoReconnect,
		StatusInterval: time.Duration(req.StatusIntervalSeconds) * time.Second,
	})
	if !ok {
		back.Result(c, nil, xerr.ErrWorkerNotFound)
		return
	}
	back.Success(c, gin.H{"updated": true})
}

func (h *WorkerHandler) StopAll(c *gin.Context) {
	h.supervisor.StopAllWorkers(c.Request.Context())
	back.Success(c, gin.H{"stopped": true})
}
