package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas sobre PostgreSQL. El núcleo solo lee ventas, marca líneas y registra
// entradas de caja; el resto del ciclo de vida de la venta vive fuera de este servicio.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// GetForUpdate venta con sus líneas, bloqueando la cabecera; nil, nil si no existe.
func (r *SaleRepo) GetForUpdate(ctx context.Context, negocioID, id int64) (*entity.Sale, error) {
	query := `
		SELECT id, negocio_id, folio, clave_turno, tipo, estatus, total, usuario_id, notas, created_at
		FROM ventas WHERE negocio_id = $1 AND id = $2
		FOR UPDATE`
	var s entity.Sale
	var kind, status string
	err := r.q.QueryRow(ctx, query, negocioID, id).Scan(
		&s.ID, &s.NegocioID, &s.Folio, &s.ShiftKey, &kind, &status, &s.Total, &s.UserID, &s.Notes, &s.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get venta: %w", err)
	}
	s.Kind = entity.SaleKind(kind)
	s.Status = entity.SaleStatus(status)

	rows, err := r.q.Query(ctx, `
		SELECT id, venta_id, producto_id, cantidad, precio_unitario, costo_unitario, inventario_procesado
		FROM ventas_detalle WHERE venta_id = $1 ORDER BY id`, s.ID)
	if err != nil {
		return nil, fmt.Errorf("list ventas_detalle: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.UnitCost, &l.InventoryProcessed); err != nil {
			return nil, fmt.Errorf("scan ventas_detalle: %w", err)
		}
		s.Lines = append(s.Lines, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetFolio asigna el folio de la venta.
func (r *SaleRepo) SetFolio(ctx context.Context, id int64, folio string) error {
	tag, err := r.q.Exec(ctx, `UPDATE ventas SET folio = $2 WHERE id = $1`, id, folio)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("folio %s duplicado: %w", folio, domain.ErrConflict)
		}
		return fmt.Errorf("set folio venta %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set folio venta %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// MarkLineProcessed marca la línea de venta como ya descontada del inventario.
func (r *SaleRepo) MarkLineProcessed(ctx context.Context, lineID int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE ventas_detalle SET inventario_procesado = true WHERE id = $1`, lineID)
	if err != nil {
		return fmt.Errorf("marcar ventas_detalle %d: %w", lineID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("marcar ventas_detalle %d: %w", lineID, domain.ErrNotFound)
	}
	return nil
}

// Create inserta una entrada con forma de venta y sus líneas (fondo o retiro de caja).
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO ventas (negocio_id, folio, clave_turno, tipo, estatus, total, usuario_id, notas, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		s.NegocioID, s.Folio, s.ShiftKey, string(s.Kind), string(s.Status), s.Total, s.UserID, s.Notes, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("create venta: %w", err)
	}
	for _, l := range s.Lines {
		l.SaleID = s.ID
		err := r.q.QueryRow(ctx, `
			INSERT INTO ventas_detalle (venta_id, producto_id, cantidad, precio_unitario, costo_unitario, inventario_procesado)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			l.SaleID, l.ProductID, l.Quantity, l.UnitPrice, l.UnitCost, l.InventoryProcessed,
		).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("create ventas_detalle: %w", err)
		}
	}
	return nil
}

// CountOpenByShiftKey ventas ABIERTAS con la clave del turno.
func (r *SaleRepo) CountOpenByShiftKey(ctx context.Context, negocioID int64, shiftKey string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT count(*) FROM ventas
		WHERE negocio_id = $1 AND clave_turno = $2 AND tipo = $3 AND estatus = $4`,
		negocioID, shiftKey, string(entity.SaleKindVenta), string(entity.SaleStatusAbierta),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ventas abiertas: %w", err)
	}
	return n, nil
}
