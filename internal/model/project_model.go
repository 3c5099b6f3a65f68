package model

import (
	"time"
)

// ProjectModel 众筹项目
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Creator     string   `json:"creator" gorm:"type:varchar(42);not null;index"`
	Name        string   `json:"name" gorm:"not null"`
	Description string   `json:"description" gorm:"type:text"`
	Category    Category `json:"category" gorm:"not null;default:0"`

	// 众筹信息
	TargetAmount Amount `json:"target_amount" gorm:"type:varchar(78);not null"`
	RaisedAmount Amount `json:"raised_amount" gorm:"type:varchar(78);not null;default:'0'"`
	BondAmount   Amount `json:"bond_amount" gorm:"type:varchar(78);not null"`

	// 状态
	State ProjectState `json:"state" gorm:"type:varchar(32);not null;index"`

	// 结算标记
	BondClaimed  bool `json:"bond_claimed" gorm:"default:false"`  // 完成后创建者已取回保证金
	OwnerClaimed bool `json:"owner_claimed" gorm:"default:false"` // 平台已领取没收的保证金
}

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}
