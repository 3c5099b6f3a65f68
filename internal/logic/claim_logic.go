package logic

import (
	"context"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/ledger"
	"github.com/blues/mfs/internal/model"
	"github.com/blues/mfs/internal/settlement"
)

// ClaimReceipt 领取结果；无可领取时 Amount 为 0 且不产生事件
type ClaimReceipt struct {
	Amount   model.Amount `json:"amount"`
	Projects []int64      `json:"projects"`
	Refs     []string     `json:"refs"`
	EventIds []int64      `json:"event_ids"`
}

func newClaimReceipt(amount model.Amount, projects []int64, events []model.EventModel) *ClaimReceipt {
	r := &ClaimReceipt{Amount: amount, Projects: projects, Refs: []string{}, EventIds: []int64{}}
	if r.Projects == nil {
		r.Projects = []int64{}
	}
	for _, ev := range events {
		r.Refs = append(r.Refs, ev.Ref)
		r.EventIds = append(r.EventIds, ev.Id)
	}
	return r
}

// creatorClaim 创建者在单个项目上的待领金额
type creatorClaim struct {
	amount model.Amount
	rounds []*model.VotingRoundModel // 待领释放款的投票轮
	bond   bool                      // 是否包含保证金
}

func (e *Engine) creatorClaimOf(tx *ledger.Tx, project *model.ProjectModel) (creatorClaim, error) {
	claim := creatorClaim{amount: model.Zero}
	if project.State.Round() < 1 && project.State != model.StateCompleted {
		// 尚无通过的轮次
		return claim, nil
	}

	milestones, err := tx.ListMilestones(project.Id)
	if err != nil {
		return claim, err
	}
	sp := settlement.FromModel(project, milestones)

	rounds, err := tx.ListRounds(project.Id)
	if err != nil {
		return claim, err
	}
	for i := range rounds {
		r := &rounds[i]
		if r.ReleaseClaimed || !sp.RoundReleasable(r.Idx) {
			continue
		}
		claim.amount = claim.amount.Add(sp.Tranche(r.Idx))
		claim.rounds = append(claim.rounds, r)
	}
	if !project.BondClaimed && !sp.CreatorBond().IsZero() {
		claim.amount = claim.amount.Add(sp.CreatorBond())
		claim.bond = true
	}
	return claim, nil
}

// investorRefundOf 单笔投资的待领退款
func (e *Engine) investorRefundOf(tx *ledger.Tx, project *model.ProjectModel, investment *model.InvestmentModel) (model.Amount, error) {
	if investment.Claimed {
		return model.Zero, nil
	}
	if project.State != model.StateCancelled && !project.State.IsFailure() {
		return model.Zero, nil
	}
	milestones, err := tx.ListMilestones(project.Id)
	if err != nil {
		return model.Zero, err
	}
	sp := settlement.FromModel(project, milestones)
	return sp.InvestorRefund(investment.Amount, e.gov.OwnerSharePercent), nil
}

// ownerBondOf 平台在单个项目上的待领保证金
func (e *Engine) ownerBondOf(project *model.ProjectModel) model.Amount {
	if project.OwnerClaimed {
		return model.Zero
	}
	sp := settlement.Project{State: project.State, Raised: project.RaisedAmount, Bond: project.BondAmount}
	return sp.OwnerBond(e.gov.OwnerSharePercent)
}

// ownerStates 可能存在没收保证金的状态
var ownerStates = []model.ProjectState{
	model.StateCancelled,
	model.StateFailureRound1,
	model.StateFailureRound2,
	model.StateFailureRound3,
}

// isOwner 地址是否为已配置的平台所有者
func (e *Engine) isOwner(addr string) bool {
	return e.owner != "" && addr == e.owner
}

// GetClaimableCreator 创建者在全部项目上的待领金额
func (e *Engine) GetClaimableCreator(ctx context.Context, address string) (model.Amount, error) {
	address, err := normalizeCaller(address)
	if err != nil {
		return model.Zero, err
	}
	tx := e.store.Read(ctx)
	projects, err := tx.ListProjectsByCreator(address)
	if err != nil {
		return model.Zero, err
	}

	total := model.Zero
	for i := range projects {
		claim, err := e.creatorClaimOf(tx, &projects[i])
		if err != nil {
			return model.Zero, err
		}
		total = total.Add(claim.amount)
	}
	return total, nil
}

// GetClaimableInvestor 投资人在全部项目上的待领退款
func (e *Engine) GetClaimableInvestor(ctx context.Context, address string) (model.Amount, error) {
	address, err := normalizeCaller(address)
	if err != nil {
		return model.Zero, err
	}
	tx := e.store.Read(ctx)
	investments, err := tx.ListInvestmentsByInvestor(address)
	if err != nil {
		return model.Zero, err
	}

	total := model.Zero
	for i := range investments {
		inv := &investments[i]
		if inv.Claimed {
			continue
		}
		project, err := tx.GetProject(inv.ProjectId)
		if err != nil {
			return model.Zero, err
		}
		refund, err := e.investorRefundOf(tx, project, inv)
		if err != nil {
			return model.Zero, err
		}
		total = total.Add(refund)
	}
	return total, nil
}

// GetClaimableOwner 平台所有者的待领保证金，其他地址恒为 0
func (e *Engine) GetClaimableOwner(ctx context.Context, address string) (model.Amount, error) {
	address, err := normalizeCaller(address)
	if err != nil {
		return model.Zero, err
	}
	if !e.isOwner(address) {
		return model.Zero, nil
	}
	projects, err := e.store.Read(ctx).ListProjectsByState(ownerStates...)
	if err != nil {
		return model.Zero, err
	}

	total := model.Zero
	for i := range projects {
		total = total.Add(e.ownerBondOf(&projects[i]))
	}
	return total, nil
}

// ClaimCreator 领取已通过轮次的释放款及完成后的保证金
func (e *Engine) ClaimCreator(ctx context.Context, caller string) (*ClaimReceipt, error) {
	caller, err := normalizeCaller(caller)
	if err != nil {
		return nil, err
	}
	candidates, err := e.store.Read(ctx).ListProjectsByCreator(caller)
	if err != nil {
		return nil, err
	}
	ids := projectIds(candidates)
	if len(ids) == 0 {
		return newClaimReceipt(model.Zero, nil, nil), nil
	}

	total := model.Zero
	var paid []int64
	events, err := e.run(ctx, "ClaimCreator", ids, func(rec *recorder) error {
		// 加锁后重新读取，只结算已锁定的项目
		projects, err := rec.tx.ListProjectsByIDs(ids)
		if err != nil {
			return err
		}
		for i := range projects {
			project := &projects[i]
			if project.Creator != caller {
				continue
			}
			claim, err := e.creatorClaimOf(rec.tx, project)
			if err != nil {
				return err
			}
			if claim.amount.IsZero() {
				continue
			}

			roundIdxs := make([]int, 0, len(claim.rounds))
			for _, r := range claim.rounds {
				r.ReleaseClaimed = true
				if err := rec.tx.SaveRound(r); err != nil {
					return err
				}
				roundIdxs = append(roundIdxs, r.Idx)
			}
			if claim.bond {
				project.BondClaimed = true
				if err := rec.tx.SaveProject(project); err != nil {
					return err
				}
			}

			if err := rec.emit(project.Id, model.EventCreatorClaimed, caller, claimedPayload{
				Claimant: caller,
				Amount:   claim.amount,
				Rounds:   roundIdxs,
				Bond:     claim.bond,
			}); err != nil {
				return err
			}
			total = total.Add(claim.amount)
			paid = append(paid, project.Id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newClaimReceipt(total, paid, events), nil
}

// ClaimInvestor 领取取消或失败项目的退款
func (e *Engine) ClaimInvestor(ctx context.Context, caller string) (*ClaimReceipt, error) {
	caller, err := normalizeCaller(caller)
	if err != nil {
		return nil, err
	}
	candidates, err := e.store.Read(ctx).ListInvestmentsByInvestor(caller)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, inv := range candidates {
		if !inv.Claimed {
			ids = append(ids, inv.ProjectId)
		}
	}
	if len(ids) == 0 {
		return newClaimReceipt(model.Zero, nil, nil), nil
	}

	total := model.Zero
	var paid []int64
	events, err := e.run(ctx, "ClaimInvestor", ids, func(rec *recorder) error {
		for _, projectId := range ids {
			project, err := rec.tx.GetProject(projectId)
			if err != nil {
				return err
			}
			investment, err := rec.tx.GetInvestment(projectId, caller)
			if err != nil {
				return err
			}
			refund, err := e.investorRefundOf(rec.tx, project, investment)
			if err != nil {
				return err
			}
			if refund.IsZero() {
				continue
			}

			investment.Claimed = true
			if err := rec.tx.SaveInvestment(investment); err != nil {
				return err
			}
			if err := rec.emit(projectId, model.EventInvestorClaimed, caller, claimedPayload{
				Claimant: caller,
				Amount:   refund,
			}); err != nil {
				return err
			}
			total = total.Add(refund)
			paid = append(paid, projectId)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newClaimReceipt(total, paid, events), nil
}

// ClaimOwner 平台所有者领取没收的保证金
func (e *Engine) ClaimOwner(ctx context.Context, caller string) (*ClaimReceipt, error) {
	caller, err := normalizeCaller(caller)
	if err != nil {
		return nil, err
	}
	if !e.isOwner(caller) {
		return nil, apperr.Unauthorized("%s is not the platform owner", caller)
	}
	candidates, err := e.store.Read(ctx).ListProjectsByState(ownerStates...)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for i := range candidates {
		if !candidates[i].OwnerClaimed {
			ids = append(ids, candidates[i].Id)
		}
	}
	if len(ids) == 0 {
		return newClaimReceipt(model.Zero, nil, nil), nil
	}

	total := model.Zero
	var paid []int64
	events, err := e.run(ctx, "ClaimOwner", ids, func(rec *recorder) error {
		projects, err := rec.tx.ListProjectsByIDs(ids)
		if err != nil {
			return err
		}
		for i := range projects {
			project := &projects[i]
			amount := e.ownerBondOf(project)
			if amount.IsZero() {
				continue
			}
			project.OwnerClaimed = true
			if err := rec.tx.SaveProject(project); err != nil {
				return err
			}
			if err := rec.emit(project.Id, model.EventOwnerClaimed, caller, claimedPayload{
				Claimant: caller,
				Amount:   amount,
				Bond:     true,
			}); err != nil {
				return err
			}
			total = total.Add(amount)
			paid = append(paid, project.Id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newClaimReceipt(total, paid, events), nil
}

func projectIds(projects []model.ProjectModel) []int64 {
	ids := make([]int64, len(projects))
	for i, p := range projects {
		ids[i] = p.Id
	}
	return ids
}
