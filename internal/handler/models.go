package handler

import (
	"github.com/blues/mfs/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 请求模型，金额均为十进制字符串

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	Category    string       `json:"category" binding:"required"`
	Target      model.Amount `json:"target_amount"`
	Bond        model.Amount `json:"bond_amount"`
	Milestones  []string     `json:"milestones"`
}

// FundRequest 投资请求
type FundRequest struct {
	Amount model.Amount `json:"amount"`
}

// SubmitMilestoneRequest 提交里程碑证明请求
type SubmitMilestoneRequest struct {
	EvidenceRef string `json:"evidence_ref" binding:"required"`
}

// VoteRequest 投票请求，1=赞成 2=反对
type VoteRequest struct {
	Choice model.VoteChoice `json:"choice" binding:"required"`
}

// CountResponse 计数响应
type CountResponse struct {
	Count int64 `json:"count"`
}

// AmountResponse 金额响应
type AmountResponse struct {
	Address string       `json:"address"`
	Amount  model.Amount `json:"amount"`
}

// BondResponse 保证金报价
type BondResponse struct {
	Target model.Amount `json:"target_amount"`
	Bond   model.Amount `json:"bond_amount"`
}
