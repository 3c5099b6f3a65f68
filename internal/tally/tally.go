// Package tally 里程碑投票计票规则
//
// 所有比较都在整数上进行：阈值百分比与快照总权重相乘后再与已投权重*100 比较（乘积不回绕），
// 避免浮点误差影响边界判定。
package tally

import (
	"github.com/blues/mfs/internal/model"
)

// Params 计票阈值（百分比）
type Params struct {
	QuorumPercent uint64 // 参与率下限
	VetoPercent   uint64 // 反对票占快照总权重的否决线（含）
}

// Round 计票所需的投票轮数据
type Round struct {
	Snapshot model.Amount
	Yes      model.Amount
	No       model.Amount
}

// FromModel 从投票轮记录构造
func FromModel(r *model.VotingRoundModel) Round {
	return Round{Snapshot: r.SnapshotTotalWeight, Yes: r.YesWeight, No: r.NoWeight}
}

// Voted 已投权重
func (r Round) Voted() model.Amount {
	return r.Yes.Add(r.No)
}

// Remaining 尚未投票的权重
func (r Round) Remaining() model.Amount {
	return r.Snapshot.Sub(r.Voted())
}

// atLeast 判断 part*100 >= pct*whole
func atLeast(part, whole model.Amount, pct uint64) bool {
	return part.CmpScaled(100, whole, pct) >= 0
}

// Vetoed 反对票达到否决线
func (p Params) Vetoed(r Round) bool {
	return atLeast(r.No, r.Snapshot, p.VetoPercent)
}

// QuorumReached 参与率达到法定比例
func (p Params) QuorumReached(r Round) bool {
	return atLeast(r.Voted(), r.Snapshot, p.QuorumPercent)
}

// Evaluate 每次投票后计票：结果一旦给出便不可能再被剩余票数翻转
func (p Params) Evaluate(r Round) model.RoundOutcome {
	if r.Snapshot.IsZero() {
		return model.OutcomeFail
	}
	if p.Vetoed(r) {
		return model.OutcomeFail
	}
	if !p.QuorumReached(r) {
		return model.OutcomePending
	}
	remaining := r.Remaining()
	maxNo := r.No.Add(remaining)
	if r.Yes.Gt(maxNo) && !atLeast(maxNo, r.Snapshot, p.VetoPercent) {
		return model.OutcomePass
	}
	return model.OutcomePending
}

// Close 强制结束投票轮，未投权重作废；平票按失败处理
func (p Params) Close(r Round) model.RoundOutcome {
	if r.Snapshot.IsZero() || p.Vetoed(r) || !p.QuorumReached(r) {
		return model.OutcomeFail
	}
	if r.Yes.Gt(r.No) {
		return model.OutcomePass
	}
	return model.OutcomeFail
}
