// Package ledger 账本存储：项目、里程碑、投资、投票轮、投票和事件记录
//
// 上层只能通过 Store 访问数据库；写命令必须在 Store.Tx 提供的事务中执行。
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/model"
	"github.com/ethereum/go-ethereum/crypto"
	"gorm.io/gorm"
)

// Store 账本存储
type Store struct {
	db *gorm.DB
}

// NewStore 创建账本存储
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Tx 在一个数据库事务中执行 fn，fn 返回错误时整体回滚
func (s *Store) Tx(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db})
	})
}

// Read 返回非事务的只读视图
func (s *Store) Read(ctx context.Context) *Tx {
	return &Tx{db: s.db.WithContext(ctx)}
}

// Tx 账本操作集合，可能绑定在事务上
type Tx struct {
	db *gorm.DB
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// GetProject 获取项目
func (t *Tx) GetProject(id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := t.db.First(&project, id).Error; err != nil {
		return nil, notFound(err, "project %d", id)
	}
	return &project, nil
}

// ProjectCount 项目总数
func (t *Tx) ProjectCount() (int64, error) {
	var count int64
	if err := t.db.Model(&model.ProjectModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}

// ListProjectsByState 按状态列出项目
func (t *Tx) ListProjectsByState(states ...model.ProjectState) ([]model.ProjectModel, error) {
	var projects []model.ProjectModel
	if err := t.db.Where("state IN ?", states).Order("id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects by state: %w", err)
	}
	return projects, nil
}

// ListProjectsByCreator 列出创建者的项目
func (t *Tx) ListProjectsByCreator(creator string) ([]model.ProjectModel, error) {
	var projects []model.ProjectModel
	if err := t.db.Where("creator = ?", creator).Order("id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects by creator: %w", err)
	}
	return projects, nil
}

// ListProjectsByIDs 按 id 列出项目
func (t *Tx) ListProjectsByIDs(ids []int64) ([]model.ProjectModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var projects []model.ProjectModel
	if err := t.db.Where("id IN ?", ids).Order("id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects by ids: %w", err)
	}
	return projects, nil
}

// CreateProject 创建项目及其里程碑
func (t *Tx) CreateProject(project *model.ProjectModel, milestones []model.MilestoneModel) error {
	if err := t.db.Create(project).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	for i := range milestones {
		milestones[i].ProjectId = project.Id
	}
	if err := t.db.Create(&milestones).Error; err != nil {
		return fmt.Errorf("create milestones: %w", err)
	}
	return nil
}

// SaveProject 保存项目全部字段
func (t *Tx) SaveProject(project *model.ProjectModel) error {
	if err := t.db.Save(project).Error; err != nil {
		return fmt.Errorf("save project %d: %w", project.Id, err)
	}
	return nil
}

// ListMilestones 按轮次顺序列出里程碑
func (t *Tx) ListMilestones(projectId int64) ([]model.MilestoneModel, error) {
	var milestones []model.MilestoneModel
	if err := t.db.Where("project_id = ?", projectId).Order("idx ASC").Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("list milestones of project %d: %w", projectId, err)
	}
	return milestones, nil
}

// GetMilestone 获取第 idx 个里程碑
func (t *Tx) GetMilestone(projectId int64, idx int) (*model.MilestoneModel, error) {
	var milestone model.MilestoneModel
	if err := t.db.Where("project_id = ? AND idx = ?", projectId, idx).First(&milestone).Error; err != nil {
		return nil, notFound(err, "milestone %d of project %d", idx, projectId)
	}
	return &milestone, nil
}

// SaveMilestone 保存里程碑
func (t *Tx) SaveMilestone(milestone *model.MilestoneModel) error {
	if err := t.db.Save(milestone).Error; err != nil {
		return fmt.Errorf("save milestone %d: %w", milestone.Id, err)
	}
	return nil
}

// GetInvestment 获取投资记录
func (t *Tx) GetInvestment(projectId int64, investor string) (*model.InvestmentModel, error) {
	var investment model.InvestmentModel
	if err := t.db.Where("project_id = ? AND investor = ?", projectId, investor).First(&investment).Error; err != nil {
		return nil, notFound(err, "investment of %s in project %d", investor, projectId)
	}
	return &investment, nil
}

// SaveInvestment 新建或更新投资记录
func (t *Tx) SaveInvestment(investment *model.InvestmentModel) error {
	if err := t.db.Save(investment).Error; err != nil {
		return fmt.Errorf("save investment: %w", err)
	}
	return nil
}

// ListInvestments 列出项目的全部投资
func (t *Tx) ListInvestments(projectId int64) ([]model.InvestmentModel, error) {
	var investments []model.InvestmentModel
	if err := t.db.Where("project_id = ?", projectId).Order("id ASC").Find(&investments).Error; err != nil {
		return nil, fmt.Errorf("list investments of project %d: %w", projectId, err)
	}
	return investments, nil
}

// ListInvestmentsByInvestor 列出投资人的全部投资
func (t *Tx) ListInvestmentsByInvestor(investor string) ([]model.InvestmentModel, error) {
	var investments []model.InvestmentModel
	if err := t.db.Where("investor = ?", investor).Order("project_id ASC").Find(&investments).Error; err != nil {
		return nil, fmt.Errorf("list investments of %s: %w", investor, err)
	}
	return investments, nil
}

// GetRound 获取投票轮
func (t *Tx) GetRound(projectId int64, idx int) (*model.VotingRoundModel, error) {
	var round model.VotingRoundModel
	if err := t.db.Where("project_id = ? AND idx = ?", projectId, idx).First(&round).Error; err != nil {
		return nil, notFound(err, "voting round %d of project %d", idx, projectId)
	}
	return &round, nil
}

// CreateRound 开启投票轮
func (t *Tx) CreateRound(round *model.VotingRoundModel) error {
	if err := t.db.Create(round).Error; err != nil {
		return fmt.Errorf("create voting round: %w", err)
	}
	return nil
}

// SaveRound 保存投票轮
func (t *Tx) SaveRound(round *model.VotingRoundModel) error {
	if err := t.db.Save(round).Error; err != nil {
		return fmt.Errorf("save voting round %d: %w", round.Id, err)
	}
	return nil
}

// ListRounds 列出项目已开启的投票轮
func (t *Tx) ListRounds(projectId int64) ([]model.VotingRoundModel, error) {
	var rounds []model.VotingRoundModel
	if err := t.db.Where("project_id = ?", projectId).Order("idx ASC").Find(&rounds).Error; err != nil {
		return nil, fmt.Errorf("list voting rounds of project %d: %w", projectId, err)
	}
	return rounds, nil
}

// ListExpiredOpenRounds 列出开启时间早于 before 且仍未关闭的投票轮
func (t *Tx) ListExpiredOpenRounds(before time.Time) ([]model.VotingRoundModel, error) {
	var rounds []model.VotingRoundModel
	if err := t.db.Where("closed = ? AND opened_at < ?", false, before).Order("project_id ASC").Find(&rounds).Error; err != nil {
		return nil, fmt.Errorf("list expired voting rounds: %w", err)
	}
	return rounds, nil
}

// GetVote 获取投票记录
func (t *Tx) GetVote(projectId int64, roundIdx int, voter string) (*model.VoteModel, error) {
	var vote model.VoteModel
	if err := t.db.Where("project_id = ? AND round_idx = ? AND voter = ?", projectId, roundIdx, voter).First(&vote).Error; err != nil {
		return nil, notFound(err, "vote of %s in round %d of project %d", voter, roundIdx, projectId)
	}
	return &vote, nil
}

// CreateVote 写入投票，唯一索引保证同一键只有一条
func (t *Tx) CreateVote(vote *model.VoteModel) error {
	if err := t.db.Create(vote).Error; err != nil {
		return fmt.Errorf("create vote: %w", err)
	}
	return nil
}

// ListVotesByVoter 列出投票人在项目中的投票
func (t *Tx) ListVotesByVoter(projectId int64, voter string) ([]model.VoteModel, error) {
	var votes []model.VoteModel
	if err := t.db.Where("project_id = ? AND voter = ?", projectId, voter).Order("round_idx ASC").Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("list votes of %s: %w", voter, err)
	}
	return votes, nil
}

// AppendEvent 追加事件，返回带持久引用的事件记录
func (t *Tx) AppendEvent(projectId int64, eventType, actor string, payload interface{}) (*model.EventModel, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	var seq int64
	if err := t.db.Model(&model.EventModel{}).
		Where("project_id = ?", projectId).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&seq).Error; err != nil {
		return nil, fmt.Errorf("next event seq of project %d: %w", projectId, err)
	}
	seq++

	event := &model.EventModel{
		ProjectId: projectId,
		Seq:       seq,
		EventType: eventType,
		Actor:     actor,
		Data:      string(data),
		Ref:       EventRef(projectId, seq, eventType, actor, data),
	}
	if err := t.db.Create(event).Error; err != nil {
		return nil, fmt.Errorf("append %s event: %w", eventType, err)
	}
	return event, nil
}

// EventRef 事件内容的 keccak256 摘要
func EventRef(projectId, seq int64, eventType, actor string, data []byte) string {
	head := fmt.Sprintf("%d:%d:%s:%s:", projectId, seq, eventType, actor)
	return crypto.Keccak256Hash([]byte(head), data).Hex()
}

// AssignGlobalSeq 为本事务追加的事件分配全局序号
//
// 调用方须串行执行"分配并提交"，否则序号顺序与提交顺序可能不一致。
func (t *Tx) AssignGlobalSeq(events []model.EventModel) error {
	if len(events) == 0 {
		return nil
	}
	var last int64
	if err := t.db.Model(&model.EventModel{}).
		Select("COALESCE(MAX(global_seq), 0)").
		Scan(&last).Error; err != nil {
		return fmt.Errorf("last global seq: %w", err)
	}
	for i := range events {
		last++
		if err := t.db.Model(&model.EventModel{}).
			Where("id = ?", events[i].Id).
			Update("global_seq", last).Error; err != nil {
			return fmt.Errorf("assign global seq to event %d: %w", events[i].Id, err)
		}
		events[i].GlobalSeq = last
	}
	return nil
}

// ListEvents 列出游标之后的事件
//
// projectId 大于 0 时游标为项目内序号 seq，否则为全局序号 global_seq。
func (t *Tx) ListEvents(projectId, after int64, limit int) ([]model.EventModel, error) {
	var events []model.EventModel
	var query *gorm.DB
	if projectId > 0 {
		query = t.db.Where("project_id = ? AND seq > ?", projectId, after).Order("seq ASC")
	} else {
		query = t.db.Where("global_seq > ?", after).Order("global_seq ASC")
	}
	if err := query.Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
