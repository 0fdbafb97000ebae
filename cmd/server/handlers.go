package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/vyrodovalexey/avarest/internal/router"
	"github.com/vyrodovalexey/avarest/internal/util"
)

// noteStore is the in-memory backing of the sample notes service.
type noteStore struct {
	mu    sync.RWMutex
	notes map[string]map[string]any
}

// newSampleHandlers binds the targets used by configs/service.yaml.
func newSampleHandlers() *router.Handlers {
	store := &noteStore{notes: make(map[string]map[string]any)}
	h := router.NewHandlers()

	for target, fn := range map[string]router.HandlerFunc{
		"ListNotes":  store.list,
		"GetNote":    store.get,
		"PutNote":    store.put,
		"DeleteNote": store.remove,
		"Echo":       echo,
		"GetFile":    getFile,
		"Version":    versionInfo,
	} {
		// Targets are unique map keys, so registration cannot fail.
		_ = h.Register(target, fn)
	}
	return h
}

func (s *noteStore) list(_ context.Context, req *router.Request, resp *router.Response) error {
	limit, _ := req.Value("limit").(int64)
	tag, _ := req.Value("tag").(string)

	s.mu.RLock()
	ids := make([]string, 0, len(s.notes))
	for id, note := range s.notes {
		if tag != "" && !hasTag(note, tag) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit > 0 && int64(len(ids)) > limit {
		ids = ids[:limit]
	}
	notes := make([]any, 0, len(ids))
	for _, id := range ids {
		notes = append(notes, s.notes[id])
	}
	s.mu.RUnlock()

	resp.Entity = notes
	return nil
}

func (s *noteStore) get(_ context.Context, req *router.Request, resp *router.Response) error {
	id := req.Argument("id")

	s.mu.RLock()
	note, ok := s.notes[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: note %q", util.ErrNotFound, id)
	}
	resp.Entity = note
	return nil
}

func (s *noteStore) put(_ context.Context, req *router.Request, resp *router.Response) error {
	note, ok := req.Entity.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: note body is required", util.ErrBadRequest)
	}
	id := req.Argument("id")
	stored := make(map[string]any, len(note)+1)
	for k, v := range note {
		stored[k] = v
	}
	stored["id"] = id

	s.mu.Lock()
	_, existed := s.notes[id]
	s.notes[id] = stored
	s.mu.Unlock()

	if !existed {
		resp.Status = http.StatusCreated
		resp.Header.Set("Location", "/notes/"+id)
	}
	resp.Entity = stored
	return nil
}

func (s *noteStore) remove(_ context.Context, req *router.Request, _ *router.Response) error {
	id := req.Argument("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return fmt.Errorf("%w: note %q", util.ErrNotFound, id)
	}
	delete(s.notes, id)
	return nil
}

func hasTag(note map[string]any, tag string) bool {
	tags, _ := note["tags"].([]any)
	for _, t := range tags {
		if s, ok := t.(string); ok && strings.EqualFold(s, tag) {
			return true
		}
	}
	return false
}

func echo(_ context.Context, req *router.Request, resp *router.Response) error {
	resp.Entity = req.Entity
	return nil
}

func getFile(_ context.Context, req *router.Request, resp *router.Response) error {
	resp.Entity = "/" + req.Argument("path")
	return nil
}

func versionInfo(_ context.Context, _ *router.Request, resp *router.Response) error {
	resp.Entity = map[string]any{
		"version":   version,
		"gitCommit": gitCommit,
		"buildTime": buildTime,
	}
	return nil
}
