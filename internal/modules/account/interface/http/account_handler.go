package handler

import (
	"PulseLink/internal/modules/account/application/dto/request"
	"PulseLink/internal/modules/account/application/service"
	"PulseLink/pkg/back"
	"PulseLink/pkg/xerr"
	"PulseLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	svc service.AccountService
}

func NewAccountHandler(svc service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req request.RegisterAccountRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.RegisterAccount(c.Request.Context(), req)
	back.Result(c, data, err)
}

type issueTokenRequest struct {
	AccountId string `json:"account_id" binding:"required"`
}

func (h *AccountHandler) Token(c *gin.Context) {
	var req issueTokenRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	token, err := h.svc.IssueToken(c.Request.Context(), req.AccountId)
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, gin.H{"token": token})
}

func (h *AccountHandler) Get(c *gin.Context) {
	accountId := c.Param("account_id")
	if accountId == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.GetAccount(c.Request.Context(), accountId)
	back.Result(c, data, err)
}

func (h *AccountHandler) UpsertPreference(c *gin.Context) {
	accountId := c.Param("account_id")
	if accountId == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	var req request.UpsertPreferenceRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	err := h.svc.UpsertPreference(c.Request.Context(), accountId, req)
	back.Result(c, nil, err)
}
