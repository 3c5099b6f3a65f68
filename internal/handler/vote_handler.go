package handler

import (
	"net/http"

	"github.com/blues/mfs/internal/logic"
	"github.com/blues/mfs/internal/middleware"
	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	engine *logic.Engine
}

func NewVoteHandler(engine *logic.Engine) *VoteHandler {
	return &VoteHandler{
		engine: engine,
	}
}

// GetVoting 获取项目投票情况
func (h *VoteHandler) GetVoting(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	voting, err := h.engine.GetProjectVoting(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", voting)
}

// GetMyVotes 获取地址在各轮的投票
func (h *VoteHandler) GetMyVotes(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	votes, err := h.engine.GetMyVotes(c.Request.Context(), id, c.Param("address"))
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", votes)
}

// Vote 投票
func (h *VoteHandler) Vote(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.engine.Vote(c.Request.Context(), id, middleware.Caller(c), req.Choice)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "vote recorded", receipt)
}

// CloseRound 投票期结束后强制结束当前投票轮
func (h *VoteHandler) CloseRound(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	receipt, err := h.engine.CloseRound(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "round closed", receipt)
}
