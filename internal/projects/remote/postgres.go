package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

const projectColumns = `id, owner_id, name, slug, sections, theme, layout_type, created_at, updated_at`

const schemaDDL = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner_id    TEXT NOT NULL,
	name        TEXT NOT NULL,
	slug        TEXT NOT NULL,
	sections    JSONB NOT NULL DEFAULT '[]'::jsonb,
	theme       JSONB NOT NULL,
	layout_type TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- slug uniqueness per owner is best-effort, so this index is not UNIQUE
CREATE INDEX IF NOT EXISTS idx_projects_owner_slug ON projects(owner_id, slug);
CREATE INDEX IF NOT EXISTS idx_projects_owner_updated ON projects(owner_id, updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_projects_slug ON projects(slug);
`

// Postgres stores projects in a single table with sections and theme as JSONB.
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a Postgres-backed remote store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the projects table and its indexes. Safe to call repeatedly.
func (r *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaDDL); err != nil {
		return classify("ensure_schema", err)
	}
	return nil
}

// Ping checks connectivity for health reporting.
func (r *Postgres) Ping(ctx context.Context) error {
	return classify("ping", r.db.PingContext(ctx))
}

// Insert adds p. An empty p.ID lets the database assign one; zero timestamps
// default to now().
func (r *Postgres) Insert(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	if p.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}

	sections, theme, err := encodeDocument(p.Sections, p.Theme)
	if err != nil {
		return nil, err
	}

	const q = `
INSERT INTO projects (id, owner_id, name, slug, sections, theme, layout_type, created_at, updated_at)
VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6, $7,
        COALESCE($8, now()), COALESCE($9, now()))
RETURNING ` + projectColumns + `;
`
	row := r.db.QueryRowContext(ctx, q,
		p.ID, p.OwnerID, p.Name, p.Slug, sections, theme, string(p.LayoutType),
		nullTime(p.CreatedAt), nullTime(p.UpdatedAt),
	)
	out, err := scanProject(row)
	if err != nil {
		return nil, classify("insert", err)
	}
	return out, nil
}

func (r *Postgres) SelectByID(ctx context.Context, id string) (*domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1;`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, classify("select_by_id", err)
	}
	return p, nil
}

func (r *Postgres) SelectBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE slug = $1 ORDER BY updated_at DESC LIMIT 1;`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, slug))
	if err != nil {
		return nil, classify("select_by_slug", err)
	}
	return p, nil
}

func (r *Postgres) SelectByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = $1 ORDER BY updated_at DESC;`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, classify("select_by_owner", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, classify("select_by_owner", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("select_by_owner", err)
	}
	return out, nil
}

// Update applies the non-nil patch fields. updated_at always moves strictly
// forward, even when the database clock lags the previous write.
func (r *Postgres) Update(ctx context.Context, ownerID, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	if patch.IsEmpty() {
		p, err := r.SelectByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p.OwnerID != ownerID {
			return nil, domain.ErrNotFound
		}
		return p, nil
	}
	patch = patch.Normalized()

	args := []any{id, ownerID}
	var sets []string
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Slug != nil {
		add("slug", *patch.Slug)
	}
	if patch.Sections != nil {
		data, err := json.Marshal(*patch.Sections)
		if err != nil {
			return nil, fmt.Errorf("encode sections: %w", err)
		}
		add("sections", data)
	}
	if patch.Theme != nil {
		data, err := json.Marshal(*patch.Theme)
		if err != nil {
			return nil, fmt.Errorf("encode theme: %w", err)
		}
		add("theme", data)
	}
	if patch.LayoutType != nil {
		add("layout_type", string(*patch.LayoutType))
	}
	sets = append(sets, "updated_at = GREATEST(now(), updated_at + interval '1 microsecond')")

	q := `UPDATE projects SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 AND owner_id = $2 RETURNING ` + projectColumns + `;`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, classify("update", err)
	}
	return p, nil
}

func (r *Postgres) Delete(ctx context.Context, ownerID, id string) error {
	const q = `DELETE FROM projects WHERE id = $1 AND owner_id = $2;`
	result, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return classify("delete", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify("delete", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p        domain.Project
		sections []byte
		theme    []byte
		layout   string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Slug, &sections, &theme, &layout, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &p.Sections); err != nil {
			return nil, fmt.Errorf("%w: decode sections of %s: %w", domain.ErrRemoteRejected, p.ID, err)
		}
	}
	if p.Sections == nil {
		p.Sections = []domain.Section{}
	}
	domain.SortByOrder(p.Sections)

	if len(theme) > 0 {
		if err := json.Unmarshal(theme, &p.Theme); err != nil {
			return nil, fmt.Errorf("%w: decode theme of %s: %w", domain.ErrRemoteRejected, p.ID, err)
		}
	}
	p.LayoutType = domain.LayoutType(layout)
	p.SyncState = domain.SyncStateSynced
	return &p, nil
}

func encodeDocument(sections []domain.Section, theme domain.Theme) ([]byte, []byte, error) {
	if sections == nil {
		sections = []domain.Section{}
	}
	s, err := json.Marshal(sections)
	if err != nil {
		return nil, nil, fmt.Errorf("encode sections: %w", err)
	}
	t, err := json.Marshal(theme)
	if err != nil {
		return nil, nil, fmt.Errorf("encode theme: %w", err)
	}
	return s, t, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
