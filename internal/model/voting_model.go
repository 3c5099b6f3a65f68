package model

import (
	"fmt"
	"time"
)

// VoteChoice 投票选项，与客户端约定 1=赞成 2=反对
type VoteChoice uint8

const (
	VoteNone VoteChoice = iota
	VoteYes
	VoteNo
)

func (c VoteChoice) String() string {
	switch c {
	case VoteNone:
		return "None"
	case VoteYes:
		return "Yes"
	case VoteNo:
		return "No"
	}
	return fmt.Sprintf("VoteChoice(%d)", uint8(c))
}

// Valid 是否为可投选项
func (c VoteChoice) Valid() bool {
	return c == VoteYes || c == VoteNo
}

// RoundOutcome 投票轮结果
type RoundOutcome uint8

const (
	OutcomePending RoundOutcome = iota
	OutcomePass
	OutcomeFail
)

func (o RoundOutcome) String() string {
	switch o {
	case OutcomePending:
		return "Pending"
	case OutcomePass:
		return "Pass"
	case OutcomeFail:
		return "Fail"
	}
	return fmt.Sprintf("RoundOutcome(%d)", uint8(o))
}

// MarshalText 实现 encoding.TextMarshaler
func (o RoundOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// VotingRoundModel 里程碑投票轮，按 (项目, 轮次) 唯一
type VotingRoundModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId           int64        `json:"project_id" gorm:"not null;uniqueIndex:idx_round_project_idx"`
	Idx                 int          `json:"idx" gorm:"not null;uniqueIndex:idx_round_project_idx"`
	SnapshotTotalWeight Amount       `json:"snapshot_total_weight" gorm:"type:varchar(78);not null"` // 开轮时冻结，之后不再变化
	YesWeight           Amount       `json:"yes_weight" gorm:"type:varchar(78);not null;default:'0'"`
	NoWeight            Amount       `json:"no_weight" gorm:"type:varchar(78);not null;default:'0'"`
	Closed              bool         `json:"closed" gorm:"default:false;index"`
	Outcome             RoundOutcome `json:"outcome" gorm:"default:0"`
	OpenedAt            time.Time    `json:"opened_at" gorm:"not null"`
	ClosedAt            *time.Time   `json:"closed_at"`
	ReleaseClaimed      bool         `json:"release_claimed" gorm:"default:false"` // 创建者已领取本轮释放款
}

// TableName 自定义表名
func (VotingRoundModel) TableName() string {
	return "voting_round"
}

// VoteModel 投票记录，同一 (项目, 轮次, 投票人) 只允许一条
type VoteModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectId int64      `json:"project_id" gorm:"not null;uniqueIndex:idx_vote_key"`
	RoundIdx  int        `json:"round_idx" gorm:"not null;uniqueIndex:idx_vote_key"`
	Voter     string     `json:"voter" gorm:"type:varchar(42);not null;uniqueIndex:idx_vote_key"`
	Choice    VoteChoice `json:"choice" gorm:"not null"`
	Weight    Amount     `json:"weight" gorm:"type:varchar(78);not null"`
}

// TableName 自定义表名
func (VoteModel) TableName() string {
	return "vote"
}
