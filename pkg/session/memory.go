package session

import (
	"context"
	"sync"
)

// MemoryBackend はプロセス内にトークンを保持するBackend。
// テストや一度きりの実行で使う。
type MemoryBackend struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryBackend は空のMemoryBackendを生成する。
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load は保持しているトークンを返す。
func (m *MemoryBackend) Load(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// Save はトークンを上書き保存する。
func (m *MemoryBackend) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Delete はトークンを破棄する。
func (m *MemoryBackend) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
