// Package event 账本事件推送
//
// 事件先在命令事务中持久化，提交后再通过 Feed 推送给进程内订阅者。
// 订阅者漏掉的事件可以用 ListEvents 按 id 游标补齐。
package event

import (
	"fmt"
	"sort"
	"sync"

	"github.com/blues/mfs/internal/logger"
	"github.com/blues/mfs/internal/model"
	"github.com/panjf2000/ants/v2"
)

// Handler 事件订阅回调，同一批事件按 id 顺序交付
type Handler func(event model.EventModel)

// Feed 事件推送器
type Feed struct {
	mu     sync.RWMutex
	subs   map[int]Handler
	nextID int
	pool   *ants.Pool // 推送协程池
}

// NewFeed 创建推送器，poolSize 为推送协程上限
func NewFeed(poolSize int) (*Feed, error) {
	if poolSize <= 0 {
		poolSize = 16
	}
	pool, err := ants.NewPool(poolSize,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Error("Event subscriber panicked: %v", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed pool: %w", err)
	}
	return &Feed{
		subs: make(map[int]Handler),
		pool: pool,
	}, nil
}

// Subscribe 注册订阅者，返回取消订阅函数
func (f *Feed) Subscribe(h Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.subs[id] = h

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Subscribers 当前订阅者数量
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Publish 异步推送一批已提交的事件，从不阻塞调用方
func (f *Feed) Publish(events []model.EventModel) {
	if len(events) == 0 {
		return
	}
	batch := make([]model.EventModel, len(events))
	copy(batch, events)
	sort.Slice(batch, func(i, j int) bool { return batch[i].Id < batch[j].Id })

	f.mu.RLock()
	handlers := make([]Handler, 0, len(f.subs))
	for _, h := range f.subs {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		err := f.pool.Submit(func() {
			for _, e := range batch {
				h(e)
			}
		})
		if err != nil {
			// 订阅者可通过事件游标补齐
			logger.Warn("Failed to dispatch %d events: %v", len(batch), err)
		}
	}
}

// Close 释放协程池
func (f *Feed) Close() {
	f.pool.Release()
}
