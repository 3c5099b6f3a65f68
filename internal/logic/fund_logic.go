package logic

import (
	"context"
	"errors"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/lifecycle"
	"github.com/blues/mfs/internal/model"
)

// FundReceipt 投资结果
type FundReceipt struct {
	Receipt
	Accepted model.Amount `json:"accepted"` // 计入募资的金额
	Refunded model.Amount `json:"refunded"` // 超出目标、需由转账层退回的金额
	Invested model.Amount `json:"invested"` // 该投资人累计投资额
}

// Fund 投资项目
//
// 实际计入金额为 min(amount, 目标 - 已募)，超出部分从不入账。
// 募满时在同一事务内进入 BuildingStage1。
func (e *Engine) Fund(ctx context.Context, projectId int64, investor string, amount model.Amount) (*FundReceipt, error) {
	investor, err := normalizeCaller(investor)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, apperr.New(apperr.KindInsufficientFunds, "fund amount must be positive")
	}

	result := &FundReceipt{}
	var project *model.ProjectModel
	events, err := e.run(ctx, "Fund", []int64{projectId}, func(rec *recorder) error {
		p, err := rec.tx.GetProject(projectId)
		if err != nil {
			return err
		}
		project = p

		// 检查项目状态
		if err := lifecycle.Require(project, "fund", model.StateFunding); err != nil {
			return err
		}
		if project.Creator == investor {
			return apperr.Unauthorized("creator cannot fund own project %d", projectId)
		}

		remaining := project.TargetAmount.Sub(project.RaisedAmount)
		if remaining.IsZero() {
			// 募满即迁移，正常情况下不会出现
			return apperr.New(apperr.KindOverTarget, "project %d already reached target", projectId)
		}
		accepted := amount.Min(remaining)

		investment, err := rec.tx.GetInvestment(projectId, investor)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				return err
			}
			investment = &model.InvestmentModel{ProjectId: projectId, Investor: investor}
		}
		investment.Amount = investment.Amount.Add(accepted)
		if err := rec.tx.SaveInvestment(investment); err != nil {
			return err
		}

		project.RaisedAmount = project.RaisedAmount.Add(accepted)
		var transitions []lifecycle.Transition
		if project.RaisedAmount.Eq(project.TargetAmount) {
			tr, err := lifecycle.Apply(project, lifecycle.TriggerFundingComplete)
			if err != nil {
				return err
			}
			transitions = append(transitions, tr)
		}
		if err := rec.tx.SaveProject(project); err != nil {
			return err
		}

		result.Accepted = accepted
		result.Refunded = amount.Sub(accepted)
		result.Invested = investment.Amount

		if err := rec.emit(projectId, model.EventFunded, investor, fundedPayload{
			Investor:  investor,
			Requested: amount,
			Accepted:  accepted,
			Refunded:  result.Refunded,
			Invested:  investment.Amount,
			Raised:    project.RaisedAmount,
		}); err != nil {
			return err
		}
		for _, tr := range transitions {
			if err := rec.emit(projectId, model.EventStateChanged, investor, tr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Receipt = newReceipt(projectId, project.State, events)
	return result, nil
}
