package handler

import (
	"strconv"

	"PulseLink/internal/modules/delivery/application/service"
	"PulseLink/pkg/back"
	"PulseLink/pkg/xerr"

	"github.com/gin-gonic/gin"
)

type DeliveryHandler struct {
	deliverySvc service.DeliveryService
	alertSvc    service.AlertService
}

func NewDeliveryHandler(deliverySvc service.DeliveryService, alertSvc service.AlertService) *DeliveryHandler {
	return &DeliveryHandler{
		deliverySvc: deliverySvc,
		alertSvc:    alertSvc,
	}
}

func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	accountId := c.Param("account_id")
	if accountId == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, err := h.deliverySvc.ListDeliveries(c.Request.Context(), accountId, page, pageSize)
	back.Result(c, records, err)
}

func (h *DeliveryHandler) ListAlerts(c *gin.Context) {
	accountId := c.Query("account_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	alerts, err := h.alertSvc.ListRecent(c.Request.Context(), accountId, limit)
	back.Result(c, alerts, err)
}
