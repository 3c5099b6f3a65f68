package model

import (
	"time"
)

// InvestmentModel 投资记录，按 (项目, 投资人) 唯一
type InvestmentModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId int64  `json:"project_id" gorm:"not null;uniqueIndex:idx_investment_project_investor"`
	Investor  string `json:"investor" gorm:"type:varchar(42);not null;uniqueIndex:idx_investment_project_investor;index"`
	Amount    Amount `json:"amount" gorm:"type:varchar(78);not null"`
	Claimed   bool   `json:"claimed" gorm:"default:false"` // 退款已领取
}

// TableName 自定义表名
func (InvestmentModel) TableName() string {
	return "investment"
}
