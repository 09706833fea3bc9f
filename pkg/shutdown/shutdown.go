package shutdown

import (
	"context"
	"sync"

	"github.com/betbot/metricdeck/pkg/logger"
)

// Handler 关闭处理函数
type Handler func(ctx context.Context)

type entry struct {
	name    string
	handler Handler
}

// Manager 退出时的清理管理器：按注册的逆序依次执行（后创建的先释放）
type Manager struct {
	mu       sync.Mutex
	handlers []entry
	done     bool
}

// NewManager 创建新的关闭管理器
func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, entry{name: name, handler: handler})
}

// Shutdown 执行所有关闭回调（阻塞调用，只执行一次）。
// ctx 应该带超时：某个回调卡住时放弃剩余回调并返回未执行的数量。
func (m *Manager) Shutdown(ctx context.Context) int {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return 0
	}
	m.done = true
	handlers := m.handlers
	m.handlers = nil
	m.mu.Unlock()

	for i := len(handlers) - 1; i >= 0; i-- {
		h := handlers[i]
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			h.handler(ctx)
		}()
		select {
		case <-finished:
			logger.Debugf("shutdown: %s done", h.name)
		case <-ctx.Done():
			logger.Warnf("shutdown: %s timed out (%v), %d handlers skipped", h.name, ctx.Err(), i)
			return i + 1
		}
	}
	return 0
}
