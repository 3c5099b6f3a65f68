// Package settlement 可领取金额的纯计算
//
// 可领取余额从不单独存储，而是每次由项目、投资和投票轮状态推导，
// 已领取的部分由各记录上的一次性标记排除。
package settlement

import (
	"github.com/blues/mfs/internal/model"
)

// Project 结算所需的项目快照
type Project struct {
	State    model.ProjectState
	Raised   model.Amount
	Bond     model.Amount
	Percents []uint64 // 各里程碑释放比例，按轮次顺序
}

// FromModel 由项目和里程碑记录构造
func FromModel(p *model.ProjectModel, milestones []model.MilestoneModel) Project {
	percents := make([]uint64, len(milestones))
	for _, m := range milestones {
		if m.Idx >= 0 && m.Idx < len(percents) {
			percents[m.Idx] = m.ReleasePercent
		}
	}
	return Project{State: p.State, Raised: p.RaisedAmount, Bond: p.BondAmount, Percents: percents}
}

// PassedRounds 已通过的轮数，由状态推导
func (p Project) PassedRounds() int {
	if p.State == model.StateCompleted {
		return len(p.Percents)
	}
	if r := p.State.Round(); r >= 0 {
		return r
	}
	return 0
}

// Tranche 第 idx 轮通过后释放给创建者的金额；最后一轮取余数，保证各轮之和等于募资额
func (p Project) Tranche(idx int) model.Amount {
	if idx < 0 || idx >= len(p.Percents) {
		return model.Zero
	}
	if idx == len(p.Percents)-1 {
		released := model.Zero
		for i := 0; i < idx; i++ {
			released = released.Add(p.Raised.Percent(p.Percents[i]))
		}
		return p.Raised.Sub(released)
	}
	return p.Raised.Percent(p.Percents[idx])
}

// Released 已通过轮次释放的总额
func (p Project) Released() model.Amount {
	total := model.Zero
	for i := 0; i < p.PassedRounds(); i++ {
		total = total.Add(p.Tranche(i))
	}
	return total
}

// OwnerBond 没收给平台的保证金
func (p Project) OwnerBond(ownerSharePercent uint64) model.Amount {
	switch {
	case p.State == model.StateCancelled && p.Raised.IsZero():
		return p.Bond
	case p.State == model.StateCancelled:
		return p.Bond.Percent(ownerSharePercent)
	case p.State.IsFailure():
		return p.Bond
	}
	return model.Zero
}

// InvestorBondPool 取消时分给投资人的保证金总额
func (p Project) InvestorBondPool(ownerSharePercent uint64) model.Amount {
	if p.State != model.StateCancelled || p.Raised.IsZero() {
		return model.Zero
	}
	return p.Bond.Sub(p.OwnerBond(ownerSharePercent))
}

// InvestorRefund 单笔投资可退回的金额（未扣除已领取标记）
func (p Project) InvestorRefund(invested model.Amount, ownerSharePercent uint64) model.Amount {
	if invested.IsZero() || p.Raised.IsZero() {
		return model.Zero
	}
	switch {
	case p.State == model.StateCancelled:
		share := p.InvestorBondPool(ownerSharePercent).MulDiv(invested, p.Raised)
		return invested.Add(share)
	case p.State.IsFailure():
		unreleased := p.Raised.Sub(p.Released())
		return unreleased.MulDiv(invested, p.Raised)
	}
	return model.Zero
}

// CreatorBond 项目完成后创建者可取回的保证金
func (p Project) CreatorBond() model.Amount {
	if p.State == model.StateCompleted {
		return p.Bond
	}
	return model.Zero
}

// RoundReleasable 第 idx 轮是否已通过、其释放款可被领取
func (p Project) RoundReleasable(idx int) bool {
	return idx >= 0 && idx < p.PassedRounds()
}
