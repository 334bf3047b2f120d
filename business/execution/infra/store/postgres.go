package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/execution/domain"
	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/apperror"
	"github.com/quotedesk/rfq-aggregator/internal/config"
)

const executionsSchema = `
CREATE TABLE IF NOT EXISTS executions (
	execution_id      TEXT PRIMARY KEY,
	quote_id          TEXT NOT NULL,
	status            TEXT NOT NULL,
	provider          TEXT NOT NULL,
	symbol            TEXT NOT NULL,
	client_side       TEXT NOT NULL,
	hedge_side        TEXT NOT NULL,
	hedge_basis       TEXT NOT NULL,
	hedge_amount      NUMERIC NOT NULL,
	executed_qty      NUMERIC NOT NULL,
	executed_notional NUMERIC NOT NULL,
	avg_price         NUMERIC NOT NULL,
	commission        NUMERIC NOT NULL,
	commission_asset  TEXT,
	gross_pnl         NUMERIC NOT NULL,
	net_pnl           NUMERIC NOT NULL,
	pnl_bps           NUMERIC NOT NULL,
	pnl_asset         TEXT,
	error_message     TEXT,
	executed_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS executions_executed_at_idx ON executions (executed_at DESC);
`

// PostgresStore persists execution records in postgres via a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the configured database and ensures the
// executions table exists.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeConfigurationError, "database url")
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreFailure, "connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperror.Wrap(err, apperror.CodeStoreFailure, "ping")
	}

	if _, err := pool.Exec(ctx, executionsSchema); err != nil {
		pool.Close()
		return nil, apperror.Wrap(err, apperror.CodeStoreFailure, "ensure schema")
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Record inserts one terminal execution record.
func (s *PostgresStore) Record(ctx context.Context, r *domain.ExecutionResult) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO executions (
			execution_id, quote_id, status, provider, symbol, client_side,
			hedge_side, hedge_basis, hedge_amount,
			executed_qty, executed_notional, avg_price,
			commission, commission_asset,
			gross_pnl, net_pnl, pnl_bps, pnl_asset,
			error_message, executed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		r.ID, r.QuoteID, string(r.Status), r.Provider, r.Symbol, string(r.ClientSide),
		string(r.Hedge.ExchangeSide), string(r.Hedge.Basis), r.Hedge.Amount.String(),
		r.ExecutedQty.String(), r.ExecutedNotional.String(), r.AvgPrice.String(),
		r.Commission.String(), r.CommissionAsset,
		r.GrossPnL.String(), r.NetPnL.String(), r.PnLBps.String(), r.PnLAsset,
		r.ErrorMessage, r.ExecutedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStoreFailure, "insert execution")
	}
	return nil
}

// Recent returns the latest execution records, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]*domain.ExecutionResult, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT execution_id, quote_id, status, provider, symbol, client_side,
			hedge_side, hedge_basis, hedge_amount,
			executed_qty, executed_notional, avg_price,
			commission, commission_asset,
			gross_pnl, net_pnl, pnl_bps, pnl_asset,
			error_message, executed_at
		FROM executions
		ORDER BY executed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreFailure, "query executions")
	}
	defer rows.Close()

	var out []*domain.ExecutionResult
	for rows.Next() {
		var (
			r                                 domain.ExecutionResult
			status, clientSide, hedgeSide     string
			hedgeBasis, hedgeAmount           string
			executedQty, executedNotional     string
			avgPrice, commission              string
			grossPnL, netPnL, pnlBps          string
			commissionAsset, pnlAsset, errMsg *string
			executedAt                        time.Time
		)
		if err := rows.Scan(
			&r.ID, &r.QuoteID, &status, &r.Provider, &r.Symbol, &clientSide,
			&hedgeSide, &hedgeBasis, &hedgeAmount,
			&executedQty, &executedNotional, &avgPrice,
			&commission, &commissionAsset,
			&grossPnL, &netPnL, &pnlBps, &pnlAsset,
			&errMsg, &executedAt,
		); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeStoreFailure, "scan execution")
		}

		r.Status = domain.Status(status)
		r.ClientSide = quotingDomain.Side(clientSide)
		r.Hedge = domain.HedgeParams{
			ExchangeSide: quotingDomain.Side(hedgeSide),
			Basis:        domain.QuantityBasis(hedgeBasis),
			Amount:       parseDecimal(hedgeAmount),
		}
		r.ExecutedQty = parseDecimal(executedQty)
		r.ExecutedNotional = parseDecimal(executedNotional)
		r.AvgPrice = parseDecimal(avgPrice)
		r.Commission = parseDecimal(commission)
		r.GrossPnL = parseDecimal(grossPnL)
		r.NetPnL = parseDecimal(netPnL)
		r.PnLBps = parseDecimal(pnlBps)
		if commissionAsset != nil {
			r.CommissionAsset = *commissionAsset
		}
		if pnlAsset != nil {
			r.PnLAsset = *pnlAsset
		}
		if errMsg != nil {
			r.ErrorMessage = *errMsg
		}
		r.ExecutedAt = executedAt

		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreFailure, "iterate executions")
	}
	return out, nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
