// Package draft holds the editor's in-memory working copy of a project.
//
// Every mutation re-derives section order from position and then notifies
// the registered listener with the change class, outside the draft's lock.
package draft

import (
	"fmt"
	"strings"
	"sync"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

// Class groups mutations that are persisted together.
type Class int

const (
	// ClassSections covers the section list and the site name.
	ClassSections Class = iota
	// ClassTheme covers theme and layout.
	ClassTheme
)

func (c Class) String() string {
	switch c {
	case ClassSections:
		return "sections"
	case ClassTheme:
		return "theme"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Change describes one mutation. Structural is set when a section was added.
type Change struct {
	Class      Class
	Structural bool
}

type Listener func(Change)

// Snapshot is a deep copy of the draft at one instant.
type Snapshot struct {
	OwnerID   string
	ProjectID string
	Slug      string
	// Confirmed is true once ProjectID is known to name an existing project.
	Confirmed  bool
	Name       string
	Sections   []domain.Section
	Theme      domain.Theme
	LayoutType domain.LayoutType
}

type Draft struct {
	mu         sync.Mutex
	ownerID    string
	projectID  string
	slug       string
	confirmed  bool
	name       string
	sections   []domain.Section
	theme      domain.Theme
	layoutType domain.LayoutType
	listener   Listener
}

// New starts an empty draft for ownerID targeting the site identified by
// projectID or slug. Either may be empty.
func New(ownerID, projectID, slug string) *Draft {
	return &Draft{
		ownerID:    ownerID,
		projectID:  projectID,
		slug:       domain.Slugify(slug),
		sections:   []domain.Section{},
		theme:      domain.DefaultTheme(),
		layoutType: domain.LayoutClassic,
	}
}

// FromProject loads an existing project; the draft is confirmed.
func FromProject(p *domain.Project) *Draft {
	sections := domain.CloneSections(p.Sections)
	if sections == nil {
		sections = []domain.Section{}
	}
	domain.SortByOrder(sections)
	return &Draft{
		ownerID:    p.OwnerID,
		projectID:  p.ID,
		slug:       p.Slug,
		confirmed:  true,
		name:       p.Name,
		sections:   sections,
		theme:      p.Theme,
		layoutType: p.LayoutType,
	}
}

// OnChange registers the single listener; nil removes it.
func (d *Draft) OnChange(l Listener) {
	d.mu.Lock()
	d.listener = l
	d.mu.Unlock()
}

func (d *Draft) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		OwnerID:    d.ownerID,
		ProjectID:  d.projectID,
		Slug:       d.slug,
		Confirmed:  d.confirmed,
		Name:       d.name,
		Sections:   domain.CloneSections(d.sections),
		Theme:      d.theme,
		LayoutType: d.layoutType,
	}
}

// SetOwner records the authenticated owner, e.g. after sign-in completes.
func (d *Draft) SetOwner(ownerID string) {
	d.mu.Lock()
	d.ownerID = ownerID
	d.mu.Unlock()
}

// Retarget points the draft at an existing project id and marks it confirmed.
// It is not a content change and does not notify.
func (d *Draft) Retarget(projectID string) {
	d.mu.Lock()
	d.projectID = projectID
	d.confirmed = true
	d.mu.Unlock()
}

// AddSection appends a new section of type t.
func (d *Draft) AddSection(t domain.SectionType) (domain.Section, error) {
	return d.AddSectionAt(t, -1)
}

// AddSectionAt inserts a new section of type t at index; an out-of-range
// index appends.
func (d *Draft) AddSectionAt(t domain.SectionType, index int) (domain.Section, error) {
	s, err := domain.NewSection(t)
	if err != nil {
		return domain.Section{}, err
	}
	d.mu.Lock()
	d.sections = domain.InsertSection(d.sections, index, s)
	added := d.sections[domain.IndexOfSection(d.sections, s.ID)].Clone()
	d.mu.Unlock()

	d.notify(Change{Class: ClassSections, Structural: true})
	return added, nil
}

func (d *Draft) RemoveSection(id string) error {
	d.mu.Lock()
	out, err := domain.RemoveSection(d.sections, id)
	if err == nil {
		d.sections = out
	}
	d.mu.Unlock()
	if err != nil {
		return err
	}
	d.notify(Change{Class: ClassSections})
	return nil
}

func (d *Draft) MoveSection(from, to int) error {
	d.mu.Lock()
	out, err := domain.MoveSection(d.sections, from, to)
	if err == nil {
		d.sections = out
	}
	d.mu.Unlock()
	if err != nil {
		return err
	}
	d.notify(Change{Class: ClassSections})
	return nil
}

// UpdateSection replaces the payload of section id. The payload must match
// the section's type; its order is re-derived from position.
func (d *Draft) UpdateSection(id string, props domain.SectionProps) error {
	if props == nil {
		return fmt.Errorf("%w: section %s: nil props", domain.ErrInvalidProject, id)
	}
	d.mu.Lock()
	i := domain.IndexOfSection(d.sections, id)
	if i < 0 {
		d.mu.Unlock()
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	if props.Type() != d.sections[i].Type {
		d.mu.Unlock()
		return fmt.Errorf("%w: section %s is %s, got %s props", domain.ErrInvalidProject, id, d.sections[i].Type, props.Type())
	}
	updated := domain.Section{ID: id, Type: d.sections[i].Type, Props: props}.Clone()
	d.sections[i] = updated
	domain.NormalizeOrder(d.sections)
	d.mu.Unlock()

	d.notify(Change{Class: ClassSections})
	return nil
}

// ToggleSection flips isActive on section id.
func (d *Draft) ToggleSection(id string) error {
	d.mu.Lock()
	i := domain.IndexOfSection(d.sections, id)
	if i < 0 {
		d.mu.Unlock()
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	base := d.sections[i].Props.Base()
	base.IsActive = !base.IsActive
	d.mu.Unlock()

	d.notify(Change{Class: ClassSections})
	return nil
}

func (d *Draft) SetName(name string) {
	d.mu.Lock()
	d.name = strings.TrimSpace(name)
	d.mu.Unlock()
	d.notify(Change{Class: ClassSections})
}

func (d *Draft) SetTheme(theme domain.Theme) error {
	if err := theme.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	d.theme = theme
	d.mu.Unlock()
	d.notify(Change{Class: ClassTheme})
	return nil
}

func (d *Draft) SetAccent(a domain.Accent) error {
	if !a.Valid() {
		return fmt.Errorf("%w: unknown accent %q", domain.ErrInvalidProject, a)
	}
	d.mu.Lock()
	d.theme.Accent = a
	d.mu.Unlock()
	d.notify(Change{Class: ClassTheme})
	return nil
}

func (d *Draft) SetFont(f domain.Font) error {
	if !f.Valid() {
		return fmt.Errorf("%w: unknown font %q", domain.ErrInvalidProject, f)
	}
	d.mu.Lock()
	d.theme.Font = f
	d.mu.Unlock()
	d.notify(Change{Class: ClassTheme})
	return nil
}

func (d *Draft) SetLayout(l domain.LayoutType) error {
	if !l.Valid() {
		return fmt.Errorf("%w: unknown layout %q", domain.ErrInvalidProject, l)
	}
	d.mu.Lock()
	d.layoutType = l
	d.mu.Unlock()
	d.notify(Change{Class: ClassTheme})
	return nil
}

func (d *Draft) notify(c Change) {
	d.mu.Lock()
	l := d.listener
	d.mu.Unlock()
	if l != nil {
		l(c)
	}
}
