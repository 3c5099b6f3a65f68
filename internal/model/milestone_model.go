package model

import (
	"time"
)

// MilestoneModel 项目里程碑，每个项目固定三个
type MilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId      int64      `json:"project_id" gorm:"not null;uniqueIndex:idx_milestone_project_idx"`
	Idx            int        `json:"idx" gorm:"not null;uniqueIndex:idx_milestone_project_idx"`
	Description    string     `json:"description" gorm:"type:text;not null"`
	EvidenceRef    string     `json:"evidence_ref"`    // 里程碑证明的不透明引用（如 IPFS CID）
	ReleasePercent uint64     `json:"release_percent"` // 本轮通过后释放的募资比例
	SubmittedAt    *time.Time `json:"submitted_at"`
}

// TableName 自定义表名
func (MilestoneModel) TableName() string {
	return "milestone"
}

// Submitted 证明是否已提交
func (m *MilestoneModel) Submitted() bool {
	return m.EvidenceRef != ""
}
