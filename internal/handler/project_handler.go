package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mfs/internal/logic"
	"github.com/blues/mfs/internal/middleware"
	"github.com/blues/mfs/internal/model"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	engine *logic.Engine
}

func NewProjectHandler(engine *logic.Engine) *ProjectHandler {
	return &ProjectHandler{
		engine: engine,
	}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	category, err := model.ParseCategory(req.Category)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.engine.CreateProject(c.Request.Context(), logic.CreateProjectRequest{
		Creator:     middleware.Caller(c),
		Name:        req.Name,
		Description: req.Description,
		Category:    category,
		Target:      req.Target,
		Milestones:  req.Milestones,
		Bond:        req.Bond,
	})
	if err != nil {
		Fail(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "project created", receipt)
}

// GetBond 目标金额对应的保证金
func (h *ProjectHandler) GetBond(c *gin.Context) {
	target, err := model.ParseAmount(c.Query("target"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid target amount")
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", BondResponse{Target: target, Bond: h.engine.RequiredBond(target)})
}

// GetFundingProjects 获取募资中的项目
func (h *ProjectHandler) GetFundingProjects(c *gin.Context) {
	projects, err := h.engine.GetAllFundingProjects(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", projects)
}

// GetProjectCount 获取项目总数
func (h *ProjectHandler) GetProjectCount(c *gin.Context) {
	count, err := h.engine.GetProjectCount(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", CountResponse{Count: count})
}

// GetProject 获取项目核心信息
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	core, err := h.engine.GetProjectCore(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", core)
}

// GetProjectMeta 获取项目描述信息
func (h *ProjectHandler) GetProjectMeta(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	meta, err := h.engine.GetProjectMeta(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", meta)
}

// GetMilestones 获取里程碑描述
func (h *ProjectHandler) GetMilestones(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	descs, err := h.engine.GetMilestoneDescriptions(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", descs)
}

// GetInvestments 获取项目投资记录
func (h *ProjectHandler) GetInvestments(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	investments, err := h.engine.GetAllInvestments(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", investments)
}

// GetProjectEvents 按游标获取项目事件
func (h *ProjectHandler) GetProjectEvents(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	h.listEvents(c, id)
}

// GetEvents 按游标获取全部事件
func (h *ProjectHandler) GetEvents(c *gin.Context) {
	h.listEvents(c, 0)
}

func (h *ProjectHandler) listEvents(c *gin.Context, projectId int64) {
	after, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid cursor")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid limit")
		return
	}

	events, err := h.engine.ListEvents(c.Request.Context(), projectId, after, limit)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", events)
}

// Fund 投资项目
func (h *ProjectHandler) Fund(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.engine.Fund(c.Request.Context(), id, middleware.Caller(c), req.Amount)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "funded", receipt)
}

// CancelProject 取消项目
func (h *ProjectHandler) CancelProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	receipt, err := h.engine.CancelProject(c.Request.Context(), id, middleware.Caller(c))
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "project cancelled", receipt)
}

// SubmitMilestone 提交里程碑证明
func (h *ProjectHandler) SubmitMilestone(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req SubmitMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.engine.SubmitMilestone(c.Request.Context(), id, middleware.Caller(c), req.EvidenceRef)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "milestone submitted", receipt)
}
