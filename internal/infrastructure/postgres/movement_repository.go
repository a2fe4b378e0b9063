package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta la cabecera y asigna su ID.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movimientos (negocio_id, sentido, motivo, referencia, fecha, notas, usuario_id, estatus)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.NegocioID, string(m.Direction), string(m.Reason), m.ReferenceID, m.Date, m.Notes, m.UserID, string(m.Status),
	).Scan(&m.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("referencia %s en uso: %w", m.ReferenceID, domain.ErrConflict)
		}
		return fmt.Errorf("create movimiento: %w", err)
	}
	return nil
}

// SetReference asigna el folio mientras la cabecera no tenga líneas.
func (r *MovementRepo) SetReference(ctx context.Context, movementID int64, referenceID string) error {
	query := `
		UPDATE movimientos SET referencia = $2
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM movimientos_detalle WHERE movimiento_id = $1)`
	tag, err := r.q.Exec(ctx, query, movementID, referenceID)
	if err != nil {
		return fmt.Errorf("set referencia movimiento %d: %w", movementID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set referencia movimiento %d: %w", movementID, domain.ErrConflict)
	}
	return nil
}

// CreateLine inserta una línea del libro y asigna su ID.
func (r *MovementRepo) CreateLine(ctx context.Context, l *entity.MovementLine) error {
	query := `
		INSERT INTO movimientos_detalle (
			movimiento_id, negocio_id, insumo_id, insumo_nombre, unidad_medida, sentido, motivo,
			cantidad, existencia_observada, costo_unitario, costo_declarado, precio_unitario, proveedor,
			referencia, venta_detalle_id, estatus, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		l.MovementID, l.NegocioID, l.IngredientID, l.IngredientName, l.UnitMeasure, string(l.Direction), string(l.Reason),
		l.Quantity, l.ObservedStock, l.UnitCost, l.CostStated, l.UnitPrice, l.Supplier,
		l.ReferenceID, l.SaleLineID, string(l.Status), l.CreatedAt,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("create línea movimiento: %w", err)
	}
	return nil
}

const movementColumns = `id, negocio_id, sentido, motivo, referencia, fecha, notas, usuario_id, estatus`

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var dir, reason, status string
	if err := row.Scan(&m.ID, &m.NegocioID, &dir, &reason, &m.ReferenceID, &m.Date, &m.Notes, &m.UserID, &status); err != nil {
		return nil, err
	}
	m.Direction = entity.MovementDirection(dir)
	m.Reason = entity.MovementReason(reason)
	m.Status = entity.MovementStatus(status)
	return &m, nil
}

const lineColumns = `d.id, d.movimiento_id, d.negocio_id, d.insumo_id, d.insumo_nombre, d.unidad_medida,
	d.sentido, d.motivo, d.cantidad, d.existencia_observada, d.costo_unitario, d.costo_declarado,
	d.precio_unitario, d.proveedor, d.referencia, d.venta_detalle_id, d.estatus, d.created_at`

func scanLine(row pgx.Row) (*entity.MovementLine, error) {
	var l entity.MovementLine
	var dir, reason, status string
	err := row.Scan(
		&l.ID, &l.MovementID, &l.NegocioID, &l.IngredientID, &l.IngredientName, &l.UnitMeasure,
		&dir, &reason, &l.Quantity, &l.ObservedStock, &l.UnitCost, &l.CostStated,
		&l.UnitPrice, &l.Supplier, &l.ReferenceID, &l.SaleLineID, &status, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Direction = entity.MovementDirection(dir)
	l.Reason = entity.MovementReason(reason)
	l.Status = entity.MovementStatus(status)
	return &l, nil
}

func (r *MovementRepo) queryLines(ctx context.Context, query string, args ...any) ([]*entity.MovementLine, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list líneas movimiento: %w", err)
	}
	defer rows.Close()
	var out []*entity.MovementLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan línea movimiento: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *MovementRepo) linesOf(ctx context.Context, movementID int64) ([]*entity.MovementLine, error) {
	return r.queryLines(ctx, `SELECT `+lineColumns+` FROM movimientos_detalle d WHERE d.movimiento_id = $1 ORDER BY d.id`, movementID)
}

// GetByID cabecera con sus líneas; nil, nil si no existe en el negocio.
func (r *MovementRepo) GetByID(ctx context.Context, negocioID, id int64) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movimientos WHERE negocio_id = $1 AND id = $2`
	m, err := scanMovement(r.q.QueryRow(ctx, query, negocioID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movimiento: %w", err)
	}
	if m.Lines, err = r.linesOf(ctx, m.ID); err != nil {
		return nil, err
	}
	return m, nil
}

// ListByReference cabeceras (con líneas) de una referencia, por id.
func (r *MovementRepo) ListByReference(ctx context.Context, negocioID int64, referenceID string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movimientos WHERE negocio_id = $1 AND referencia = $2 ORDER BY id`
	rows, err := r.q.Query(ctx, query, negocioID, referenceID)
	if err != nil {
		return nil, fmt.Errorf("list movimientos: %w", err)
	}
	var out []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan movimiento: %w", err)
		}
		out = append(out, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Las líneas se leen después de cerrar rows: una tx de pgx no admite dos consultas abiertas.
	for _, m := range out {
		if m.Lines, err = r.linesOf(ctx, m.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListLinesByReference líneas en el estado dado, excluyendo cabeceras ELIMINADO; orden por insumo.
func (r *MovementRepo) ListLinesByReference(ctx context.Context, negocioID int64, referenceID string, status entity.MovementStatus) ([]*entity.MovementLine, error) {
	query := `SELECT ` + lineColumns + `
		FROM movimientos_detalle d
		JOIN movimientos m ON m.id = d.movimiento_id
		WHERE d.negocio_id = $1 AND d.referencia = $2 AND d.estatus = $3 AND m.estatus <> $4
		ORDER BY d.insumo_id, d.id`
	return r.queryLines(ctx, query, negocioID, referenceID, string(status), string(entity.StatusEliminado))
}

// SaleLineWritten clave de idempotencia (referencia, línea de venta, insumo).
func (r *MovementRepo) SaleLineWritten(ctx context.Context, negocioID int64, referenceID string, saleLineID, ingredientID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM movimientos_detalle
			WHERE negocio_id = $1 AND referencia = $2 AND venta_detalle_id = $3 AND insumo_id = $4 AND estatus <> $5)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, negocioID, referenceID, saleLineID, ingredientID, string(entity.StatusEliminado)).Scan(&exists); err != nil {
		return false, fmt.Errorf("sale line written: %w", err)
	}
	return exists, nil
}

// SetStatus cambia el estado de la cabecera respetando la máquina de estados.
func (r *MovementRepo) SetStatus(ctx context.Context, negocioID, movementID int64, status entity.MovementStatus) error {
	var current string
	err := r.q.QueryRow(ctx, `SELECT estatus FROM movimientos WHERE negocio_id = $1 AND id = $2 FOR UPDATE`, negocioID, movementID).Scan(&current)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("set estatus movimiento %d: %w", movementID, domain.ErrNotFound)
		}
		return fmt.Errorf("set estatus movimiento %d: %w", movementID, err)
	}
	if !entity.MovementStatus(current).CanTransitionTo(status) {
		return fmt.Errorf("movimiento %d %s → %s: %w", movementID, current, status, domain.ErrConflict)
	}
	if _, err := r.q.Exec(ctx, `UPDATE movimientos SET estatus = $2 WHERE id = $1`, movementID, string(status)); err != nil {
		return fmt.Errorf("set estatus movimiento %d: %w", movementID, err)
	}
	return nil
}

// SetLineStatus cambia el estado de una línea respetando la máquina de estados.
func (r *MovementRepo) SetLineStatus(ctx context.Context, lineID int64, status entity.MovementStatus) error {
	var current string
	err := r.q.QueryRow(ctx, `SELECT estatus FROM movimientos_detalle WHERE id = $1 FOR UPDATE`, lineID).Scan(&current)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("set estatus línea %d: %w", lineID, domain.ErrNotFound)
		}
		return fmt.Errorf("set estatus línea %d: %w", lineID, err)
	}
	if !entity.MovementStatus(current).CanTransitionTo(status) {
		return fmt.Errorf("línea %d %s → %s: %w", lineID, current, status, domain.ErrConflict)
	}
	if _, err := r.q.Exec(ctx, `UPDATE movimientos_detalle SET estatus = $2 WHERE id = $1`, lineID, string(status)); err != nil {
		return fmt.Errorf("set estatus línea %d: %w", lineID, err)
	}
	return nil
}

// CountLinesByStatus líneas de la cabecera en el estado dado.
func (r *MovementRepo) CountLinesByStatus(ctx context.Context, movementID int64, status entity.MovementStatus) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM movimientos_detalle WHERE movimiento_id = $1 AND estatus = $2`, movementID, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count líneas movimiento %d: %w", movementID, err)
	}
	return n, nil
}
