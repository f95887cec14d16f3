// Package autosave turns bursts of draft mutations into coalesced project
// updates.
//
// Each change class has its own debounce timer. A class moves
// IDLE -> PENDING on a mutation, PENDING -> FLUSHING when its timer fires,
// and back to IDLE when the flush returns. A mutation during FLUSHING only
// marks the class dirty; the timer is re-armed once the flush completes and
// the next flush sends whatever the draft holds then.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/staysite/site-sync-backend/internal/editor/draft"
	"github.com/staysite/site-sync-backend/internal/logging"
	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

// ErrNoTarget is returned by SaveNow when the draft has no owner or no
// project identifier yet.
var ErrNoTarget = errors.New("autosave: draft has no owner or target project")

// Coordinator is the subset of the sync coordinator the scheduler drives.
type Coordinator interface {
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*domain.Project, error)
	CreateProject(ctx context.Context, ownerID string, in domain.CreateInput) (*domain.Project, error)
	UpdateProject(ctx context.Context, ownerID, id string, patch domain.ProjectPatch) (*domain.Project, error)
}

// Notice reports a failed automatic flush. The draft is left as is and the
// next cycle retries with its latest state.
type Notice struct {
	Class draft.Class
	Err   error
}

type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type Config struct {
	SectionsWindow time.Duration
	ThemeWindow    time.Duration
	// StructuralDelay is the fixed delay of the extra flush after a section
	// is added. Later mutations do not push it back, and the sections
	// debounce keeps running alongside it.
	StructuralDelay time.Duration
	// FlushTimeout bounds one automatic flush end to end.
	FlushTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		SectionsWindow:  2000 * time.Millisecond,
		ThemeWindow:     1000 * time.Millisecond,
		StructuralDelay: 1000 * time.Millisecond,
		FlushTimeout:    15 * time.Second,
	}
}

type State int

const (
	StateIdle State = iota
	StatePending
	StateFlushing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePending:
		return "PENDING"
	case StateFlushing:
		return "FLUSHING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type classState struct {
	state State
	timer *time.Timer
	// gen invalidates timers that fired after being replaced or stopped.
	gen   uint64
	dirty bool
}

type Scheduler struct {
	cfg      Config
	draft    *draft.Draft
	sync     Coordinator
	notifier Notifier
	log      *logging.Logger

	mu         sync.Mutex
	classes    map[draft.Class]*classState
	structural *time.Timer
	stopped    bool
	inflight   sync.WaitGroup

	// ensureMu keeps two flushes from both creating the project.
	ensureMu sync.Mutex
}

// New attaches a scheduler to d. notifier may be nil.
func New(d *draft.Draft, c Coordinator, notifier Notifier, cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.SectionsWindow <= 0 {
		cfg.SectionsWindow = def.SectionsWindow
	}
	if cfg.ThemeWindow <= 0 {
		cfg.ThemeWindow = def.ThemeWindow
	}
	if cfg.StructuralDelay <= 0 {
		cfg.StructuralDelay = def.StructuralDelay
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = def.FlushTimeout
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}

	s := &Scheduler{
		cfg:      cfg,
		draft:    d,
		sync:     c,
		notifier: notifier,
		log:      logging.New("autosave"),
		classes: map[draft.Class]*classState{
			draft.ClassSections: {},
			draft.ClassTheme:    {},
		},
	}
	d.OnChange(s.handle)
	return s
}

// State reports the current state of class.
func (s *Scheduler) State(class draft.Class) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classes[class].state
}

func (s *Scheduler) window(class draft.Class) time.Duration {
	if class == draft.ClassTheme {
		return s.cfg.ThemeWindow
	}
	return s.cfg.SectionsWindow
}

func (s *Scheduler) handle(ch draft.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	cs, ok := s.classes[ch.Class]
	if !ok {
		return
	}
	if cs.state == StateFlushing {
		cs.dirty = true
	} else {
		s.armLocked(ch.Class, cs)
	}

	if ch.Structural && s.structural == nil {
		s.structural = time.AfterFunc(s.cfg.StructuralDelay, func() {
			s.mu.Lock()
			s.structural = nil
			s.mu.Unlock()
			s.fire(draft.ClassSections, 0, true)
		})
	}
}

// armLocked (re)starts the debounce timer for class.
func (s *Scheduler) armLocked(class draft.Class, cs *classState) {
	if cs.timer != nil {
		cs.timer.Stop()
	}
	cs.gen++
	gen := cs.gen
	cs.state = StatePending
	cs.timer = time.AfterFunc(s.window(class), func() {
		s.fire(class, gen, false)
	})
}

// fire flushes class. A debounce timer only flushes if it is still the
// current one. The structural timer always does and leaves a pending
// debounce armed.
func (s *Scheduler) fire(class draft.Class, gen uint64, structural bool) {
	s.mu.Lock()
	cs := s.classes[class]
	if s.stopped || (!structural && gen != cs.gen) {
		s.mu.Unlock()
		return
	}
	if !structural {
		cs.timer = nil
	}
	if cs.state == StateFlushing {
		cs.dirty = true
		s.mu.Unlock()
		return
	}
	cs.state = StateFlushing
	cs.dirty = false
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FlushTimeout)
	err := s.flush(ctx, class)
	cancel()
	if err != nil {
		s.log.Warnf("flush", "class=%s structural=%t failed: %v", class, structural, err)
		s.notifier.Notify(Notice{Class: class, Err: err})
	}

	s.mu.Lock()
	cs.state = StateIdle
	switch {
	case cs.dirty && !s.stopped:
		cs.dirty = false
		s.armLocked(class, cs)
	case cs.timer != nil:
		cs.state = StatePending
	}
	s.mu.Unlock()
}

// flush persists the current draft for class. A draft without an owner or
// target is skipped silently.
func (s *Scheduler) flush(ctx context.Context, class draft.Class) error {
	snap := s.draft.Snapshot()
	if !hasTarget(snap) {
		s.log.Debugf("flush", "class=%s skipped: no owner or target", class)
		return nil
	}

	id, created, err := s.ensure(ctx)
	if err != nil {
		return err
	}
	if created {
		return nil
	}

	snap = s.draft.Snapshot()
	_, err = s.sync.UpdateProject(ctx, snap.OwnerID, id, patchFor(class, snap))
	if err != nil {
		return fmt.Errorf("update project %s: %w", id, err)
	}
	s.log.Debugf("flush", "class=%s project_id=%s sections=%d", class, id, len(snap.Sections))
	return nil
}

// ensure resolves the project the draft writes to: the confirmed id, else
// an existing project by id, else by slug, else a newly created one. The
// draft is retargeted so later flushes reuse the id. created reports that
// the project was just created from the current draft.
func (s *Scheduler) ensure(ctx context.Context) (id string, created bool, err error) {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()

	snap := s.draft.Snapshot()
	if snap.Confirmed && snap.ProjectID != "" {
		return snap.ProjectID, false, nil
	}

	if snap.ProjectID != "" {
		p, err := s.sync.GetProject(ctx, snap.ProjectID)
		if err != nil {
			return "", false, fmt.Errorf("look up project %s: %w", snap.ProjectID, err)
		}
		if p != nil {
			s.draft.Retarget(p.ID)
			return p.ID, false, nil
		}
	}
	if snap.Slug != "" {
		p, err := s.sync.GetProjectBySlug(ctx, snap.Slug)
		if err != nil {
			return "", false, fmt.Errorf("look up slug %s: %w", snap.Slug, err)
		}
		if p != nil && p.OwnerID == snap.OwnerID {
			s.draft.Retarget(p.ID)
			return p.ID, false, nil
		}
	}

	p, err := s.sync.CreateProject(ctx, snap.OwnerID, domain.CreateInput{
		Name:       snap.Name,
		Slug:       snap.Slug,
		Sections:   snap.Sections,
		Theme:      &snap.Theme,
		LayoutType: snap.LayoutType,
	})
	if err != nil {
		return "", false, fmt.Errorf("create project: %w", err)
	}
	s.draft.Retarget(p.ID)
	s.log.Infof("ensure", "created project_id=%s slug=%s", p.ID, p.Slug)
	return p.ID, true, nil
}

// SaveNow is the manual save: it cancels pending timers, writes the whole
// draft and returns any error to the caller.
func (s *Scheduler) SaveNow(ctx context.Context) error {
	s.mu.Lock()
	for _, cs := range s.classes {
		if cs.timer != nil {
			cs.timer.Stop()
			cs.timer = nil
		}
		cs.gen++
		if cs.state == StatePending {
			cs.state = StateIdle
		}
	}
	if s.structural != nil {
		s.structural.Stop()
		s.structural = nil
	}
	s.mu.Unlock()

	if !hasTarget(s.draft.Snapshot()) {
		return ErrNoTarget
	}
	id, created, err := s.ensure(ctx)
	if err != nil {
		return err
	}
	if created {
		return nil
	}

	snap := s.draft.Snapshot()
	if _, err := s.sync.UpdateProject(ctx, snap.OwnerID, id, fullPatch(snap)); err != nil {
		return fmt.Errorf("save project %s: %w", id, err)
	}
	return nil
}

// Stop cancels pending timers and waits for in-flight flushes. Mutations
// after Stop are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for _, cs := range s.classes {
		if cs.timer != nil {
			cs.timer.Stop()
			cs.timer = nil
		}
		if cs.state == StatePending {
			cs.state = StateIdle
		}
	}
	if s.structural != nil {
		s.structural.Stop()
		s.structural = nil
	}
	s.mu.Unlock()

	s.draft.OnChange(nil)
	s.inflight.Wait()
}

func hasTarget(snap draft.Snapshot) bool {
	return snap.OwnerID != "" && (snap.ProjectID != "" || snap.Slug != "")
}

func patchFor(class draft.Class, snap draft.Snapshot) domain.ProjectPatch {
	if class == draft.ClassTheme {
		theme, layout := snap.Theme, snap.LayoutType
		return domain.ProjectPatch{Theme: &theme, LayoutType: &layout}
	}
	sections := snap.Sections
	if sections == nil {
		sections = []domain.Section{}
	}
	p := domain.ProjectPatch{Sections: &sections}
	if snap.Name != "" {
		name := snap.Name
		p.Name = &name
	}
	return p
}

func fullPatch(snap draft.Snapshot) domain.ProjectPatch {
	p := patchFor(draft.ClassSections, snap)
	t := patchFor(draft.ClassTheme, snap)
	p.Theme, p.LayoutType = t.Theme, t.LayoutType
	return p
}
