package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/negocio-inventario/internal/domain"
	"github.com/jhoicas/negocio-inventario/internal/domain/entity"
	"github.com/jhoicas/negocio-inventario/internal/domain/repository"
)

var _ repository.ShiftRepository = (*ShiftRepo)(nil)

// ShiftRepo turnos sobre PostgreSQL. El índice único parcial turnos_abierto_uq
// respalda la regla de un turno abierto por (negocio, usuario).
type ShiftRepo struct {
	q Querier
}

// NewShiftRepository construye el adaptador. Pasar pool o tx (Querier).
func NewShiftRepository(q Querier) *ShiftRepo {
	return &ShiftRepo{q: q}
}

// LockUser toma un advisory lock de transacción por (negocio, usuario).
func (r *ShiftRepo) LockUser(ctx context.Context, negocioID, userID int64) error {
	key := fmt.Sprintf("turno:%d:%d", negocioID, userID)
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("lock turno: %w", err)
	}
	return nil
}

const shiftColumns = `id, negocio_id, numero, inicio, fin, estatus, clave, usuario_id, meta_ventas`

func scanShift(row pgx.Row) (*entity.Shift, error) {
	var sh entity.Shift
	var status string
	if err := row.Scan(&sh.ID, &sh.NegocioID, &sh.Number, &sh.StartedAt, &sh.EndedAt, &status, &sh.Key, &sh.UserID, &sh.SalesGoal); err != nil {
		return nil, err
	}
	sh.Status = entity.ShiftStatus(status)
	return &sh, nil
}

// GetOpen turno abierto del usuario; nil, nil si no tiene.
func (r *ShiftRepo) GetOpen(ctx context.Context, negocioID, userID int64) (*entity.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM turnos WHERE negocio_id = $1 AND usuario_id = $2 AND estatus = $3`
	sh, err := scanShift(r.q.QueryRow(ctx, query, negocioID, userID, string(entity.ShiftAbierto)))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get turno abierto: %w", err)
	}
	return sh, nil
}

// Create inserta el turno; el número de turno es su id.
func (r *ShiftRepo) Create(ctx context.Context, sh *entity.Shift) error {
	query := `
		INSERT INTO turnos (negocio_id, numero, inicio, estatus, clave, usuario_id, meta_ventas)
		VALUES ($1, 0, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.q.QueryRow(ctx, query, sh.NegocioID, sh.StartedAt, string(sh.Status), sh.Key, sh.UserID, sh.SalesGoal).Scan(&sh.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrShiftAlreadyOpen
		}
		return fmt.Errorf("create turno: %w", err)
	}
	if _, err := r.q.Exec(ctx, `UPDATE turnos SET numero = id WHERE id = $1`, sh.ID); err != nil {
		return fmt.Errorf("numerar turno %d: %w", sh.ID, err)
	}
	sh.Number = sh.ID
	return nil
}

// GetForUpdate turno del negocio bloqueando la fila; nil, nil si no existe.
func (r *ShiftRepo) GetForUpdate(ctx context.Context, negocioID, id int64) (*entity.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM turnos WHERE negocio_id = $1 AND id = $2 FOR UPDATE`
	sh, err := scanShift(r.q.QueryRow(ctx, query, negocioID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get turno: %w", err)
	}
	return sh, nil
}

// Close cierra el turno una sola vez.
func (r *ShiftRepo) Close(ctx context.Context, sh *entity.Shift) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE turnos SET estatus = $3, fin = $4
		WHERE negocio_id = $1 AND id = $2 AND estatus = $5`,
		sh.NegocioID, sh.ID, string(entity.ShiftCerrado), sh.EndedAt, string(entity.ShiftAbierto),
	)
	if err != nil {
		return fmt.Errorf("cerrar turno %d: %w", sh.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrShiftClosed
	}
	return nil
}
