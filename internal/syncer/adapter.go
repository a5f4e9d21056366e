// Package syncer keeps the client's collection of mind maps in step with
// the persistence service, falling back to a local cache when the user is
// not signed in.
package syncer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"mindcanvas/internal/apperr"
	"mindcanvas/internal/logger"
	"mindcanvas/internal/mindmap"
)

// ErrStale is returned by Load when a later Load superseded it.
var ErrStale = errors.New("syncer: load superseded by a newer request")

// Adapter is safe for concurrent use; the UI runs its calls off the
// update loop.
type Adapter struct {
	remote Remote
	local  LocalStore
	engine *mindmap.Engine
	log    *logger.Logger

	mu        sync.Mutex
	maps      []mindmap.MindMap
	localOnly map[string]bool
	current   *mindmap.MindMap
	offline   bool
	gen       uint64
}

type Option func(*Adapter)

func WithEngine(e *mindmap.Engine) Option { return func(a *Adapter) { a.engine = e } }

// Offline starts the adapter without a signed-in user.
func Offline() Option { return func(a *Adapter) { a.offline = true } }

// New builds an adapter. remote may be nil for a purely local session;
// local may be nil when no cache directory is configured.
func New(remote Remote, local LocalStore, opts ...Option) *Adapter {
	a := &Adapter{
		remote:    remote,
		local:     local,
		engine:    mindmap.NewEngine(),
		log:       logger.New("syncer"),
		localOnly: map[string]bool{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if remote == nil {
		a.offline = true
	}
	return a
}

// IsOffline reports whether calls go to the local cache only.
func (a *Adapter) IsOffline() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.offline
}

// GoOnline resumes remote calls after the user signs in.
func (a *Adapter) GoOnline() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.remote != nil {
		a.offline = false
	}
}

// GoOffline stops remote calls, for example after sign-out.
func (a *Adapter) GoOffline() {
	a.mu.Lock()
	a.offline = true
	a.mu.Unlock()
}

// Maps returns copies of the known maps.
func (a *Adapter) Maps() []mindmap.MindMap {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]mindmap.MindMap, len(a.maps))
	for i, m := range a.maps {
		out[i] = mindmap.Clone(m)
	}
	return out
}

// Current returns the open map, if any.
func (a *Adapter) Current() (mindmap.MindMap, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return mindmap.MindMap{}, false
	}
	return mindmap.Clone(*a.current), true
}

// IsLocalOnly reports whether id exists only in the local cache.
func (a *Adapter) IsLocalOnly(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.localOnly[id]
}

// LoadAll fetches the user's maps and appends local-only maps not present
// in the fetched set. An authentication failure switches to offline mode
// and yields the local maps alone.
func (a *Adapter) LoadAll(ctx context.Context) ([]mindmap.MindMap, error) {
	cached, err := a.loadLocal()
	if err != nil {
		a.log.Warn("local cache unreadable", map[string]interface{}{"error": err})
	}

	if a.IsOffline() {
		a.mu.Lock()
		a.maps = a.mergeLocked(nil, cached)
		out := cloneAll(a.maps)
		a.mu.Unlock()
		return out, nil
	}

	fetched, err := a.remote.List(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrAuthentication) {
			a.log.Info("not authenticated, continuing offline", nil)
			a.mu.Lock()
			a.offline = true
			a.maps = a.mergeLocked(nil, cached)
			out := cloneAll(a.maps)
			a.mu.Unlock()
			return out, nil
		}
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range fetched {
		fetched[i] = mindmap.Sanitize(fetched[i])
	}
	a.maps = a.mergeLocked(fetched, cached)
	a.log.Debug("maps loaded", map[string]interface{}{"remote": len(fetched), "total": len(a.maps)})
	return cloneAll(a.maps), nil
}

func (a *Adapter) loadLocal() ([]mindmap.MindMap, error) {
	if a.local == nil {
		return nil, nil
	}
	return a.local.LoadAll()
}

// mergeLocked returns fetched followed by every local-only map whose id is
// not already present. Local-only maps are those in the cache plus those
// created offline in this session; a fetched map always wins over a local
// copy with the same id.
func (a *Adapter) mergeLocked(fetched, cached []mindmap.MindMap) []mindmap.MindMap {
	out := make([]mindmap.MindMap, 0, len(fetched)+len(cached))
	seen := make(map[string]bool, len(fetched)+len(cached))
	for _, m := range fetched {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		delete(a.localOnly, m.ID)
		out = append(out, m)
	}
	for _, m := range cached {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		a.localOnly[m.ID] = true
		out = append(out, m)
	}
	for _, m := range a.maps {
		if seen[m.ID] || !a.localOnly[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}

// Load fetches id and makes it current. If another Load starts before this
// one returns, this one reports ErrStale and leaves current alone.
func (a *Adapter) Load(ctx context.Context, id string) (mindmap.MindMap, error) {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	useLocal := a.offline || a.localOnly[id]
	a.mu.Unlock()

	var (
		m   mindmap.MindMap
		err error
	)
	if useLocal {
		m, err = a.findLocal(id)
	} else {
		m, err = a.remote.Get(ctx, id)
	}
	if err != nil {
		return mindmap.MindMap{}, err
	}
	m = mindmap.Sanitize(m)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return mindmap.MindMap{}, ErrStale
	}
	a.upsertLocked(m)
	cur := mindmap.Clone(m)
	a.current = &cur
	return mindmap.Clone(m), nil
}

func (a *Adapter) findLocal(id string) (mindmap.MindMap, error) {
	a.mu.Lock()
	for _, m := range a.maps {
		if m.ID == id {
			a.mu.Unlock()
			return mindmap.Clone(m), nil
		}
	}
	a.mu.Unlock()

	cached, err := a.loadLocal()
	if err != nil {
		return mindmap.MindMap{}, err
	}
	for _, m := range cached {
		if m.ID == id {
			return m, nil
		}
	}
	return mindmap.MindMap{}, apperr.NotFound("Mind map not found")
}

// Save persists m as it is at the time of the call. On success the stored
// copy replaces the local entry and is returned. On failure nothing local
// changes.
func (a *Adapter) Save(ctx context.Context, m mindmap.MindMap) (mindmap.MindMap, error) {
	snapshot := mindmap.Clone(m)

	a.mu.Lock()
	useLocal := a.offline || a.localOnly[snapshot.ID]
	a.mu.Unlock()

	var (
		saved mindmap.MindMap
		err   error
	)
	if useLocal {
		saved, err = a.saveLocal(snapshot)
	} else {
		saved, err = a.remote.Update(ctx, snapshot)
		if err == nil {
			saved = mindmap.Sanitize(saved)
		}
	}
	if err != nil {
		a.log.Warn("save failed", map[string]interface{}{"id": snapshot.ID, "error": err})
		return mindmap.MindMap{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.upsertLocked(saved)
	if a.current != nil && a.current.ID == saved.ID {
		cur := mindmap.Clone(saved)
		a.current = &cur
	}
	return mindmap.Clone(saved), nil
}

func (a *Adapter) saveLocal(m mindmap.MindMap) (mindmap.MindMap, error) {
	m.UpdatedAt = a.now()
	if a.local != nil {
		if err := a.local.Put(m); err != nil {
			return mindmap.MindMap{}, err
		}
	}
	a.mu.Lock()
	a.localOnly[m.ID] = true
	a.mu.Unlock()
	return m, nil
}

// Create persists a new empty map, seeds its root node locally with the
// title as text, and makes it current. The root is sent on the first Save.
func (a *Adapter) Create(ctx context.Context, req CreateRequest) (mindmap.MindMap, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return mindmap.MindMap{}, apperr.Validation("Title is required",
			[]mindmap.FieldError{{Field: "title", Message: "Title is required"}})
	}

	var (
		shell mindmap.MindMap
		err   error
	)
	offline := a.IsOffline()
	if offline {
		shell = a.engine.NewDocument(mindmap.NewID("local"), req.Title)
		shell.Description = req.Description
		shell.IsPublic = req.IsPublic
		if req.Tags != nil {
			shell.Tags = append([]string{}, req.Tags...)
		}
	} else {
		shell, err = a.remote.Create(ctx, req)
		if err != nil {
			return mindmap.MindMap{}, err
		}
		shell = mindmap.Sanitize(shell)
	}

	doc := shell
	if len(doc.Nodes) == 0 {
		doc, _ = a.engine.SeedRoot(shell, req.Title)
	}

	if offline {
		if doc, err = a.saveLocal(doc); err != nil {
			return mindmap.MindMap{}, err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.maps = append([]mindmap.MindMap{doc}, a.maps...)
	cur := mindmap.Clone(doc)
	a.current = &cur
	a.gen++
	return mindmap.Clone(doc), nil
}

// Delete removes id remotely, then locally, and closes it if it was open.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	useLocal := a.offline || a.localOnly[id]
	a.mu.Unlock()

	if !useLocal {
		if err := a.remote.Delete(ctx, id); err != nil {
			return err
		}
	}
	if a.local != nil {
		if err := a.local.Delete(id); err != nil {
			a.log.Warn("cache delete failed", map[string]interface{}{"id": id, "error": err})
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for i, m := range a.maps {
		if m.ID == id {
			a.maps = append(a.maps[:i], a.maps[i+1:]...)
			break
		}
	}
	delete(a.localOnly, id)
	if a.current != nil && a.current.ID == id {
		a.current = nil
	}
	return nil
}

// Close forgets the open map without deleting it.
func (a *Adapter) Close() {
	a.mu.Lock()
	a.current = nil
	a.gen++
	a.mu.Unlock()
}

func (a *Adapter) upsertLocked(m mindmap.MindMap) {
	for i := range a.maps {
		if a.maps[i].ID == m.ID {
			a.maps[i] = m
			return
		}
	}
	a.maps = append(a.maps, m)
}

func (a *Adapter) now() time.Time {
	if a.engine.Now != nil {
		return a.engine.Now()
	}
	return time.Now()
}

func cloneAll(ms []mindmap.MindMap) []mindmap.MindMap {
	out := make([]mindmap.MindMap, len(ms))
	for i, m := range ms {
		out[i] = mindmap.Clone(m)
	}
	return out
}
