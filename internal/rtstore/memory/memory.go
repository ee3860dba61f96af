// Package memory is the in-process engine behind the rtstore contract:
// a nested map tree under one mutex, deep-copied snapshots fanned out to
// prefix-matched subscribers, and per-owner disconnect removal lists.
package memory

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/avelichko/planpoker/internal/rtstore"
)

type subscriber struct {
	path string
	ch   chan any
}

type Store struct {
	mu          sync.Mutex
	root        map[string]any
	subscribers map[*rtstore.Subscription]*subscriber
	removals    map[string][]string

	logger *slog.Logger
}

type StoreOption func(*Store)

func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(opts ...StoreOption) *Store {
	s := &Store{
		root:        make(map[string]any),
		subscribers: make(map[*rtstore.Subscription]*subscriber),
		removals:    make(map[string][]string),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Subscribe(path string) *rtstore.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &subscriber{
		path: path,
		ch:   make(chan any, 1),
	}
	handle := &rtstore.Subscription{
		Path: path,
		C:    sub.ch,
	}
	s.subscribers[handle] = sub

	sub.deliver(deepCopy(s.lookup(path)))
	return handle
}

func (s *Store) Unsubscribe(handle *rtstore.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subscribers[handle]; ok {
		delete(s.subscribers, handle)
		close(sub.ch)
	}
}

func (s *Store) WriteField(ctx context.Context, path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set(path, value)
	s.notify(path)
	return nil
}

func (s *Store) WriteMultiple(ctx context.Context, path string, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for rel, value := range updates {
		s.set(join(path, rel), value)
	}
	s.notify(path)
	return nil
}

func (s *Store) GenerateChildKey(parentPath string) string {
	return uuid.NewString()
}

func (s *Store) RegisterOnDisconnectRemoval(owner, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removals[owner] = append(s.removals[owner], path)
}

func (s *Store) CancelDisconnectRemovals(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.removals, owner)
}

func (s *Store) Disconnected(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := s.removals[owner]
	delete(s.removals, owner)

	for _, path := range paths {
		s.logger.Debug("disconnect removal", "owner", owner, "path", path)
		s.set(path, nil)
		s.notify(path)
	}
}

// set walks the tree to path and assigns value, creating intermediate
// branches on the way. A nil value deletes the node; branches emptied by
// the deletion are pruned upward, which is what makes a room disappear
// once its last child is gone.
func (s *Store) set(path string, value any) {
	parts := split(path)
	if len(parts) == 0 {
		return
	}

	nodes := make([]map[string]any, 0, len(parts))
	node := s.root
	for _, part := range parts[:len(parts)-1] {
		nodes = append(nodes, node)
		child, ok := node[part].(map[string]any)
		if !ok {
			if value == nil {
				return
			}
			child = make(map[string]any)
			node[part] = child
		}
		node = child
	}
	nodes = append(nodes, node)

	leaf := parts[len(parts)-1]
	if value == nil {
		delete(node, leaf)
		for i := len(nodes) - 1; i > 0; i-- {
			if len(nodes[i]) > 0 {
				break
			}
			delete(nodes[i-1], parts[i-1])
		}
		return
	}
	node[leaf] = value
}

func (s *Store) lookup(path string) any {
	var node any = s.root
	for _, part := range split(path) {
		branch, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node, ok = branch[part]
		if !ok {
			return nil
		}
	}
	return node
}

// notify snapshots every subtree affected by a write at path: both
// subscribers above the write (their subtree contains it) and below it
// (the write replaced an ancestor of their subtree).
func (s *Store) notify(path string) {
	for _, sub := range s.subscribers {
		if !overlaps(sub.path, path) {
			continue
		}
		sub.deliver(deepCopy(s.lookup(sub.path)))
	}
}

// deliver replaces any undelivered snapshot with the newest one.
func (sub *subscriber) deliver(snapshot any) {
	select {
	case sub.ch <- snapshot:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snapshot:
		default:
		}
	}
}

func overlaps(a, b string) bool {
	return a == b ||
		strings.HasPrefix(b, a+"/") ||
		strings.HasPrefix(a, b+"/")
}

func split(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func join(base, rel string) string {
	if rel == "" {
		return base
	}
	return base + "/" + rel
}

func deepCopy(v any) any {
	branch, ok := v.(map[string]any)
	if !ok {
		return v
	}
	clone := make(map[string]any, len(branch))
	for key, child := range branch {
		clone[key] = deepCopy(child)
	}
	return clone
}
