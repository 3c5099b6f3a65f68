package logic

import (
	"context"
	"strings"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/lifecycle"
	"github.com/blues/mfs/internal/model"
	"github.com/blues/mfs/internal/settlement"
)

// CreateProjectRequest 创建项目参数
type CreateProjectRequest struct {
	Creator     string
	Name        string
	Description string
	Category    model.Category
	Target      model.Amount
	Milestones  []string     // 三个里程碑描述
	Bond        model.Amount // 随创建一同缴纳的保证金
}

// RequiredBond 目标金额对应的保证金
func (e *Engine) RequiredBond(target model.Amount) model.Amount {
	return target.DivUint64(e.gov.BondDivisor)
}

// CreateProject 创建项目
func (e *Engine) CreateProject(ctx context.Context, req CreateProjectRequest) (*Receipt, error) {
	// 验证项目数据
	creator, err := e.validateProject(&req)
	if err != nil {
		return nil, err
	}

	project := &model.ProjectModel{
		Creator:      creator,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Category:     req.Category,
		TargetAmount: req.Target,
		RaisedAmount: model.Zero,
		BondAmount:   req.Bond,
		State:        model.StateFunding,
	}

	milestones := make([]model.MilestoneModel, model.RoundCount)
	for i := range milestones {
		milestones[i] = model.MilestoneModel{
			Idx:            i,
			Description:    strings.TrimSpace(req.Milestones[i]),
			ReleasePercent: e.gov.ReleasePercents[i],
		}
	}

	events, err := e.run(ctx, "CreateProject", nil, func(rec *recorder) error {
		if err := rec.tx.CreateProject(project, milestones); err != nil {
			return err
		}
		descs := make([]string, len(milestones))
		for i, m := range milestones {
			descs[i] = m.Description
		}
		return rec.emit(project.Id, model.EventProjectCreated, creator, projectCreatedPayload{
			Creator:    creator,
			Name:       project.Name,
			Category:   project.Category.String(),
			Target:     project.TargetAmount,
			Bond:       project.BondAmount,
			Milestones: descs,
			Percents:   e.gov.ReleasePercents,
			State:      project.State,
		})
	})
	if err != nil {
		return nil, err
	}

	receipt := newReceipt(project.Id, project.State, events)
	return &receipt, nil
}

// validateProject 验证项目数据，返回规范化的创建者地址
// maxTarget 目标金额上限，按百分比计算的中间值不超出 256 位
var maxTarget = model.MaxAmount.DivUint64(100)

func (e *Engine) validateProject(req *CreateProjectRequest) (string, error) {
	creator, err := normalizeCaller(req.Creator)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Name) == "" {
		return "", apperr.InvalidArgument("project name is required")
	}
	if !req.Category.Valid() {
		return "", apperr.InvalidArgument("unknown category %d", uint8(req.Category))
	}
	if req.Target.IsZero() {
		return "", apperr.InvalidArgument("target amount must be positive")
	}
	if req.Target.Gt(maxTarget) {
		return "", apperr.InvalidArgument("target amount exceeds %s", maxTarget)
	}
	if len(req.Milestones) != model.RoundCount {
		return "", apperr.InvalidArgument("exactly %d milestone descriptions required, got %d", model.RoundCount, len(req.Milestones))
	}
	for i, m := range req.Milestones {
		if strings.TrimSpace(m) == "" {
			return "", apperr.InvalidArgument("milestone %d description is required", i+1)
		}
	}

	required := e.RequiredBond(req.Target)
	switch {
	case req.Bond.Lt(required):
		return "", apperr.New(apperr.KindInsufficientFunds, "bond %s below required %s", req.Bond, required)
	case req.Bond.Gt(required):
		return "", apperr.InvalidArgument("bond %s must equal %s", req.Bond, required)
	}
	return creator, nil
}

// CancelProject 创建者在募资阶段取消项目
//
// 无人投资时保证金全部归平台；已有投资时平台与投资人按比例分保证金，
// 投资本金始终全额可退。
func (e *Engine) CancelProject(ctx context.Context, projectId int64, caller string) (*Receipt, error) {
	caller, err := normalizeCaller(caller)
	if err != nil {
		return nil, err
	}

	var project *model.ProjectModel
	events, err := e.run(ctx, "CancelProject", []int64{projectId}, func(rec *recorder) error {
		p, err := rec.tx.GetProject(projectId)
		if err != nil {
			return err
		}
		project = p
		if project.Creator != caller {
			return apperr.Unauthorized("only the creator can cancel project %d", projectId)
		}

		tr, err := lifecycle.Apply(project, lifecycle.TriggerCancel)
		if err != nil {
			return err
		}
		if err := rec.tx.SaveProject(project); err != nil {
			return err
		}

		sp := settlement.Project{State: project.State, Raised: project.RaisedAmount, Bond: project.BondAmount}
		if err := rec.emit(projectId, model.EventProjectCancelled, caller, cancelledPayload{
			Raised:           project.RaisedAmount,
			Bond:             project.BondAmount,
			OwnerBond:        sp.OwnerBond(e.gov.OwnerSharePercent),
			InvestorBondPool: sp.InvestorBondPool(e.gov.OwnerSharePercent),
		}); err != nil {
			return err
		}
		return rec.emit(projectId, model.EventStateChanged, caller, tr)
	})
	if err != nil {
		return nil, err
	}

	receipt := newReceipt(projectId, project.State, events)
	return &receipt, nil
}
