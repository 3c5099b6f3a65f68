package logic

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/event"
	"github.com/blues/mfs/internal/ledger"
	"github.com/blues/mfs/internal/logger"
	"github.com/blues/mfs/internal/model"
	"github.com/blues/mfs/internal/tally"
)

// Engine 账本与治理引擎
//
// 同一项目上的命令通过项目锁串行执行，每条命令在一个账本事务中完成：
// 要么全部生效，要么因校验失败整体回滚，不留任何部分写入。
type Engine struct {
	store *ledger.Store
	feed  *event.Feed
	gov   config.GovernanceConfig
	tally tally.Params
	owner string // 平台所有者地址，为空表示未配置
	locks *projectLocks
	now   func() time.Time

	commitMu sync.Mutex // 串行化全局序号分配与提交
}

// Option 引擎选项
type Option func(*Engine)

// WithClock 替换时钟，用于测试投票期
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine 创建引擎，feed 可以为 nil
func NewEngine(store *ledger.Store, feed *event.Feed, gov config.GovernanceConfig, opts ...Option) (*Engine, error) {
	if err := gov.Validate(); err != nil {
		return nil, fmt.Errorf("invalid governance config: %w", err)
	}

	var owner string
	if gov.OwnerAddress != "" {
		addr, err := model.NormalizeAddress(gov.OwnerAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid owner address: %w", err)
		}
		owner = addr
	}

	e := &Engine{
		store: store,
		feed:  feed,
		gov:   gov,
		tally: tally.Params{QuorumPercent: gov.QuorumPercent, VetoPercent: gov.VetoPercent},
		owner: owner,
		locks: newProjectLocks(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Governance 当前治理参数
func (e *Engine) Governance() config.GovernanceConfig {
	return e.gov
}

// Subscribe 订阅账本事件
func (e *Engine) Subscribe(h event.Handler) func() {
	if e.feed == nil {
		return func() {}
	}
	return e.feed.Subscribe(h)
}

// Receipt 写命令的结果，Refs 为本次产生的事件持久引用
type Receipt struct {
	ProjectId int64              `json:"project_id"`
	State     model.ProjectState `json:"state"`
	Refs      []string           `json:"refs"`
	EventIds  []int64            `json:"event_ids"`
}

func newReceipt(projectId int64, state model.ProjectState, events []model.EventModel) Receipt {
	r := Receipt{ProjectId: projectId, State: state, Refs: []string{}, EventIds: []int64{}}
	for _, ev := range events {
		r.Refs = append(r.Refs, ev.Ref)
		r.EventIds = append(r.EventIds, ev.Id)
	}
	return r
}

// recorder 收集命令事务内追加的事件
type recorder struct {
	tx     *ledger.Tx
	events []model.EventModel
}

func (r *recorder) emit(projectId int64, eventType, actor string, payload interface{}) error {
	ev, err := r.tx.AppendEvent(projectId, eventType, actor, payload)
	if err != nil {
		return err
	}
	r.events = append(r.events, *ev)
	return nil
}

// run 锁住相关项目后在事务中执行命令，提交成功再推送事件
func (e *Engine) run(ctx context.Context, name string, projectIds []int64, fn func(rec *recorder) error) ([]model.EventModel, error) {
	unlock := e.locks.lock(projectIds...)
	defer unlock()

	var (
		events    []model.EventModel
		sequenced bool
	)
	err := e.store.Tx(ctx, func(tx *ledger.Tx) error {
		rec := &recorder{tx: tx}
		if err := fn(rec); err != nil {
			return err
		}
		if len(rec.events) == 0 {
			return nil
		}
		// 持有 commitMu 直到事务提交，全局序号与提交顺序一致
		e.commitMu.Lock()
		sequenced = true
		if err := tx.AssignGlobalSeq(rec.events); err != nil {
			return err
		}
		events = rec.events
		return nil
	})
	if sequenced {
		e.commitMu.Unlock()
	}
	if err != nil {
		kind := apperr.KindOf(err)
		if kind == apperr.KindInternal {
			logger.Error("%s failed: %v", name, err)
		} else {
			logger.Warn("%s rejected [%s]: %v", name, kind, err)
		}
		return nil, err
	}

	if e.feed != nil {
		e.feed.Publish(events)
	}
	logger.Debug("%s committed with %d events", name, len(events))
	return events, nil
}

// projectLocks 每个项目一把互斥锁
type projectLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *projectLocks) get(id int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// lock 按 id 升序加锁避免死锁，返回解锁函数
func (l *projectLocks) lock(ids ...int64) func() {
	uniq := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, id := range uniq {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// normalizeCaller 校验调用者地址
func normalizeCaller(addr string) (string, error) {
	a, err := model.NormalizeAddress(addr)
	if err != nil {
		return "", apperr.InvalidArgument("%v", err)
	}
	return a, nil
}
