// Package preview 管理预览文档的生命周期：每次请求递增序号，
// 只有最新的请求可以发布结果，旧结果与被替换的文档都会被释放。
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// FailureMessage 是预览生成失败时展示给用户的文案。
const FailureMessage = "Unable to render preview. Please try again."

var (
	// ErrSuperseded 表示请求在完成前被更新的请求或关闭操作取代，结果已丢弃。
	ErrSuperseded = errors.New("preview: superseded by a newer request")
	// ErrPreviewGeneration 表示生成预览失败。
	ErrPreviewGeneration = errors.New(FailureMessage)
)

// State 是预览的当前阶段。
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Status 是预览状态的快照。
type Status struct {
	Seq     uint64 `json:"seq"`
	State   State  `json:"state"`
	Handle  string `json:"handle,omitempty"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// Generator 生成一份预览文档，应当响应 ctx 的取消。
type Generator func(ctx context.Context) (Document, error)

// Manager 串行化同一会话的预览请求，可并发使用。
type Manager struct {
	store  Store
	logger *log.Logger

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current string // 已发布的 handle，加载新预览期间仍保留
	status  Status
}

// NewManager 创建 Manager。logger 可为 nil。
func NewManager(store Store, logger *log.Logger) *Manager {
	return &Manager{store: store, logger: logger, status: Status{State: StateIdle}}
}

// Request 发起一次新的预览生成并等待其结束。
// 更早的、仍在进行的请求会被取消；若本请求在完成前被取代，返回 ErrSuperseded。
func (m *Manager) Request(ctx context.Context, gen Generator) (Status, error) {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.status = Status{Seq: seq, State: StateLoading}
	m.mu.Unlock()
	defer cancel()

	doc, err := gen(ctx)
	var handle string
	if err == nil {
		handle, err = m.store.Put(doc)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.seq {
		if handle != "" {
			m.store.Release(handle)
		}
		m.debugf("丢弃过期的预览结果", "seq", seq, "latest", m.seq)
		return m.status, ErrSuperseded
	}
	m.cancel = nil
	if err != nil {
		if m.logger != nil {
			m.logger.Error("预览生成失败", "seq", seq, "err", err)
		}
		m.status = Status{Seq: seq, State: StateFailed, Message: FailureMessage}
		return m.status, fmt.Errorf("%w: %w", ErrPreviewGeneration, err)
	}
	if m.current != "" {
		m.store.Release(m.current)
	}
	m.current = handle
	m.status = Status{Seq: seq, State: StateReady, Handle: handle, Pages: doc.Pages}
	return m.status, nil
}

// Dismiss 关闭预览：作废进行中的请求并释放当前文档。
func (m *Manager) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.current != "" {
		m.store.Release(m.current)
		m.current = ""
	}
	m.status = Status{Seq: m.seq, State: StateIdle}
}

// Status 返回当前状态。
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Document 返回已就绪的预览文档。
func (m *Manager) Document() (Document, error) {
	m.mu.Lock()
	handle := ""
	if m.status.State == StateReady {
		handle = m.status.Handle
	}
	m.mu.Unlock()
	if handle == "" {
		return Document{}, ErrNotFound
	}
	return m.store.Get(handle)
}

func (m *Manager) debugf(msg string, kv ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, kv...)
	}
}

// DefaultSessionTTL 是会话的默认空闲时长，超过后由 Sweep 关闭。
const DefaultSessionTTL = 30 * time.Minute

// Sessions 按会话 ID 管理多个 Manager，共享同一个 Store。
// 会话在 TTL 内没有任何访问即视为过期，Sweep 会关闭它并释放文档。
type Sessions struct {
	store  Store
	logger *log.Logger
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*session
}

type session struct {
	manager   *Manager
	expiresAt time.Time
}

// NewSessions 创建 Sessions。store 为 nil 时使用 MemoryStore，ttl 不为正时使用 DefaultSessionTTL。
func NewSessions(store Store, ttl time.Duration, logger *log.Logger) *Sessions {
	if store == nil {
		store = NewMemoryStore()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{store: store, logger: logger, ttl: ttl, now: time.Now, entries: make(map[string]*session)}
}

// Get 返回会话的 Manager，不存在或已过期时创建。
func (s *Sessions) Get(id string) *Manager {
	s.mu.Lock()
	now := s.now()
	e, ok := s.entries[id]
	var stale *Manager
	if ok && now.After(e.expiresAt) {
		stale, ok = e.manager, false
	}
	if !ok {
		logger := s.logger
		if logger != nil {
			logger = logger.With("session", id)
		}
		e = &session{manager: NewManager(s.store, logger)}
		s.entries[id] = e
	}
	e.expiresAt = now.Add(s.ttl)
	s.mu.Unlock()
	if stale != nil {
		stale.Dismiss()
	}
	return e.manager
}

// Lookup 返回未过期的 Manager，并顺延其过期时间。
func (s *Sessions) Lookup(id string) (*Manager, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.After(e.expiresAt) {
		return nil, false
	}
	e.expiresAt = now.Add(s.ttl)
	return e.manager, true
}

// Close 关闭会话并释放其文档。已过期但尚未清理的会话视为不存在。
func (s *Sessions) Close(id string) bool {
	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.manager.Dismiss()
	return !s.now().After(e.expiresAt)
}

// Len 返回当前保存的会话数（含已过期但尚未清理的）。
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep 关闭所有已过期的会话，返回关闭的数量。
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	now := s.now()
	var expired []*Manager
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			expired = append(expired, e.manager)
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()
	for _, m := range expired {
		m.Dismiss()
	}
	if len(expired) > 0 && s.logger != nil {
		s.logger.Debug("已清理过期预览会话", "count", len(expired))
	}
	return len(expired)
}

// Run 每隔 interval 调用一次 Sweep，直到 ctx 结束。
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
