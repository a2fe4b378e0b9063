package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/negocio-inventario/internal/application/ports"
	"github.com/jhoicas/negocio-inventario/internal/application/reconcile"
	"github.com/rs/zerolog"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool    *pgxpool.Pool
	log     zerolog.Logger
	metrics reconcile.Recorder
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, log zerolog.Logger, metrics reconcile.Recorder) *TxRunner {
	return &TxRunner{pool: pool, log: log, metrics: metrics}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// El repositorio de insumos con escritura solo se entrega al conciliador.
func (r *TxRunner) Run(ctx context.Context, fn func(tx *ports.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ingredients := NewIngredientRepository(tx)
	movements := NewMovementRepository(tx)
	if err := fn(&ports.Tx{
		Ingredients: ingredients,
		Recipes:     NewRecipeRepository(tx),
		Products:    NewProductRepository(tx),
		Movements:   movements,
		Sales:       NewSaleRepository(tx),
		Shifts:      NewShiftRepository(tx),
		Conciliador: reconcile.New(ingredients, movements, r.log, r.metrics),
	}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
