package model

import (
	"time"
)

// 事件类型
const (
	EventProjectCreated     = "ProjectCreated"
	EventFunded             = "Funded"
	EventStateChanged       = "StateChanged"
	EventProjectCancelled   = "ProjectCancelled"
	EventMilestoneSubmitted = "MilestoneSubmitted"
	EventVoteCast           = "VoteCast"
	EventRoundResolved      = "RoundResolved"
	EventCreatorClaimed     = "CreatorClaimed"
	EventInvestorClaimed    = "InvestorClaimed"
	EventOwnerClaimed       = "OwnerClaimed"
)

// EventModel 账本事件，只追加不修改
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectId int64  `json:"project_id" gorm:"not null;uniqueIndex:idx_event_project_seq"`
	Seq       int64  `json:"seq" gorm:"not null;uniqueIndex:idx_event_project_seq"` // 项目内递增序号
	GlobalSeq int64  `json:"global_seq" gorm:"not null;default:0;index"`            // 全局提交序号，与提交顺序一致
	EventType string `json:"event_type" gorm:"type:varchar(32);not null;index"`
	Actor     string `json:"actor" gorm:"type:varchar(42)"`
	Data      string `json:"data" gorm:"type:text"`
	Ref       string `json:"ref" gorm:"type:varchar(66);not null;uniqueIndex"` // 持久引用，keccak256
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
