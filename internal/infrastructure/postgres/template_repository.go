package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/invorya-transformaciones/internal/domain"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/entity"
	"github.com/jhoicas/invorya-transformaciones/internal/domain/repository"
)

var _ repository.TemplateRepository = (*TemplateRepo)(nil)

const (
	directionInput  = "input"
	directionOutput = "output"
)

// TemplateRepo plantillas de transformación; las líneas viven en transformation_template_lines.
type TemplateRepo struct {
	q Querier
}

// NewTemplateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTemplateRepository(q Querier) *TemplateRepo {
	return &TemplateRepo{q: q}
}

const templateColumns = `id, company_id, code, name, description, is_active, usage_count, created_at, updated_at, created_by`

// Create inserta cabecera y líneas en un batch.
func (r *TemplateRepo) Create(ctx context.Context, t *entity.TransformationTemplate) error {
	b := &pgx.Batch{}
	b.Queue(`INSERT INTO transformation_templates (`+templateColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.CompanyID, t.Code, t.Name, t.Description, t.IsActive, t.UsageCount, t.CreatedAt, t.UpdatedAt, t.CreatedBy)
	queueTemplateLines(b, t)
	return execBatch(ctx, r.q, b, "insert template")
}

// Update reemplaza la cabecera editable y todas las líneas.
func (r *TemplateRepo) Update(ctx context.Context, t *entity.TransformationTemplate) error {
	b := &pgx.Batch{}
	b.Queue(`
		UPDATE transformation_templates SET name = $2, description = $3, is_active = $4, updated_at = $5
		WHERE id = $1`, t.ID, t.Name, t.Description, t.IsActive, t.UpdatedAt)
	b.Queue(`DELETE FROM transformation_template_lines WHERE template_id = $1`, t.ID)
	queueTemplateLines(b, t)
	return execBatch(ctx, r.q, b, "update template")
}

func queueTemplateLines(b *pgx.Batch, t *entity.TransformationTemplate) {
	const q = `
		INSERT INTO transformation_template_lines (id, template_id, direction, item_id, unit_measure, quantity, is_scrap, sequence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, l := range t.Inputs {
		b.Queue(q, l.ID, t.ID, directionInput, l.ItemID, l.UnitMeasure, l.Quantity, false, l.Sequence)
	}
	for _, l := range t.Outputs {
		b.Queue(q, l.ID, t.ID, directionOutput, l.ItemID, l.UnitMeasure, l.Quantity, l.IsScrap, l.Sequence)
	}
}

// GetByID obtiene la plantilla con sus líneas.
func (r *TemplateRepo) GetByID(ctx context.Context, id string) (*entity.TransformationTemplate, error) {
	var t entity.TransformationTemplate
	err := r.q.QueryRow(ctx, `SELECT `+templateColumns+` FROM transformation_templates WHERE id = $1`, id).Scan(
		&t.ID, &t.CompanyID, &t.Code, &t.Name, &t.Description, &t.IsActive, &t.UsageCount, &t.CreatedAt, &t.UpdatedAt, &t.CreatedBy,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	if err := r.loadLines(ctx, map[string]*entity.TransformationTemplate{t.ID: &t}); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByCompany lista plantillas por empresa con paginación.
func (r *TemplateRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.TransformationTemplate, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+templateColumns+` FROM transformation_templates
		WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	var list []*entity.TransformationTemplate
	byID := make(map[string]*entity.TransformationTemplate)
	for rows.Next() {
		var t entity.TransformationTemplate
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Code, &t.Name, &t.Description, &t.IsActive, &t.UsageCount,
			&t.CreatedAt, &t.UpdatedAt, &t.CreatedBy); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan template: %w", err)
		}
		list = append(list, &t)
		byID[t.ID] = &t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if err := r.loadLines(ctx, byID); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *TemplateRepo) loadLines(ctx context.Context, byID map[string]*entity.TransformationTemplate) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, template_id, direction, item_id, unit_measure, quantity, is_scrap, sequence
		FROM transformation_template_lines WHERE template_id = ANY($1)
		ORDER BY template_id, direction, sequence`, ids)
	if err != nil {
		return fmt.Errorf("list template lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			out       entity.TemplateOutput
			direction string
		)
		if err := rows.Scan(&out.ID, &out.TemplateID, &direction, &out.ItemID, &out.UnitMeasure, &out.Quantity, &out.IsScrap, &out.Sequence); err != nil {
			return fmt.Errorf("scan template line: %w", err)
		}
		t := byID[out.TemplateID]
		if t == nil {
			continue
		}
		if direction == directionInput {
			t.Inputs = append(t.Inputs, entity.TemplateInput{
				ID: out.ID, TemplateID: out.TemplateID, ItemID: out.ItemID,
				UnitMeasure: out.UnitMeasure, Quantity: out.Quantity, Sequence: out.Sequence,
			})
			continue
		}
		t.Outputs = append(t.Outputs, out)
	}
	return rows.Err()
}

// IncrementUsage suma una orden creada al contador de uso.
func (r *TemplateRepo) IncrementUsage(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE transformation_templates SET usage_count = usage_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment template usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// execBatch ejecuta todas las sentencias del batch y devuelve el primer error.
func execBatch(ctx context.Context, q Querier, b *pgx.Batch, op string) error {
	br := q.SendBatch(ctx, b)
	defer br.Close()
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("%s: %w", op, mapWriteErr(err))
		}
	}
	return br.Close()
}
