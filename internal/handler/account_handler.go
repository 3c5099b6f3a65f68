package handler

import (
	"context"
	"net/http"

	"github.com/blues/mfs/internal/logic"
	"github.com/blues/mfs/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AccountHandler 地址维度的查询与领取
type AccountHandler struct {
	engine *logic.Engine
}

func NewAccountHandler(engine *logic.Engine) *AccountHandler {
	return &AccountHandler{
		engine: engine,
	}
}

// GetCreatorProjects 获取创建者的项目
func (h *AccountHandler) GetCreatorProjects(c *gin.Context) {
	projects, err := h.engine.GetProjectsByCreator(c.Request.Context(), c.Param("address"))
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", projects)
}

// GetInvestedProjects 获取地址投资的项目
func (h *AccountHandler) GetInvestedProjects(c *gin.Context) {
	projects, err := h.engine.GetMyInvestedProjects(c.Request.Context(), c.Param("address"))
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", projects)
}

// GetClaimable 获取地址各角色的待领金额
func (h *AccountHandler) GetClaimable(c *gin.Context) {
	claimable, err := h.engine.GetClaimable(c.Request.Context(), c.Param("address"))
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", claimable)
}

// ClaimCreator 创建者领取
func (h *AccountHandler) ClaimCreator(c *gin.Context) {
	h.claim(c, h.engine.ClaimCreator)
}

// ClaimInvestor 投资人领取退款
func (h *AccountHandler) ClaimInvestor(c *gin.Context) {
	h.claim(c, h.engine.ClaimInvestor)
}

// ClaimOwner 平台领取没收的保证金
func (h *AccountHandler) ClaimOwner(c *gin.Context) {
	h.claim(c, h.engine.ClaimOwner)
}

func (h *AccountHandler) claim(c *gin.Context, fn func(ctx context.Context, caller string) (*logic.ClaimReceipt, error)) {
	receipt, err := fn(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		Fail(c, err)
		return
	}
	message := "claimed"
	if receipt.Amount.IsZero() {
		message = "nothing to claim"
	}
	SuccessResponse(c, http.StatusOK, message, receipt)
}
