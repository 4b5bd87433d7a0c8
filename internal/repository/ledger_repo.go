package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/rs/zerolog/log"
)

// Fixed keys of the local persisted state.
const (
	KeyProducts = "estoque_produtos"
	KeyLogs     = "estoque_logs"
)

// LedgerRepository persists the ledger as two JSON blobs in a KVStore.
type LedgerRepository interface {
	Save(ctx context.Context, l model.Ledger) error
	// Load reports false when no products blob is stored or either blob cannot
	// be decoded.
	Load(ctx context.Context) (model.Ledger, bool)
	Clear(ctx context.Context) error
}

type ledgerRepo struct{ kv KVStore }

func NewLedgerRepository(kv KVStore) LedgerRepository {
	return &ledgerRepo{kv: kv}
}

func (r *ledgerRepo) Save(ctx context.Context, l model.Ledger) error {
	if l.Products == nil {
		l.Products = []model.Product{}
	}
	if l.Logs == nil {
		l.Logs = []model.MovementLog{}
	}
	if err := r.put(ctx, KeyProducts, l.Products); err != nil {
		return err
	}
	return r.put(ctx, KeyLogs, l.Logs)
}

func (r *ledgerRepo) put(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if !r.kv.Save(ctx, key, b) {
		return fmt.Errorf("save %s: %w", key, apierror.ErrStorageFailure)
	}
	return nil
}

func (r *ledgerRepo) Load(ctx context.Context) (model.Ledger, bool) {
	l := model.Ledger{Products: []model.Product{}, Logs: []model.MovementLog{}}

	raw, ok := r.kv.Load(ctx, KeyProducts)
	if !ok {
		return l, false
	}
	if err := json.Unmarshal(raw, &l.Products); err != nil {
		log.Warn().Err(err).Str("key", KeyProducts).Msg("corrupt persisted state ignored")
		return model.Ledger{Products: []model.Product{}, Logs: []model.MovementLog{}}, false
	}

	if raw, ok := r.kv.Load(ctx, KeyLogs); ok {
		if err := json.Unmarshal(raw, &l.Logs); err != nil {
			log.Warn().Err(err).Str("key", KeyLogs).Msg("corrupt persisted state ignored")
			return model.Ledger{Products: []model.Product{}, Logs: []model.MovementLog{}}, false
		}
	}
	if l.Products == nil {
		l.Products = []model.Product{}
	}
	if l.Logs == nil {
		l.Logs = []model.MovementLog{}
	}
	return l, true
}

func (r *ledgerRepo) Clear(ctx context.Context) error {
	okProducts := r.kv.Clear(ctx, KeyProducts)
	okLogs := r.kv.Clear(ctx, KeyLogs)
	if !okProducts || !okLogs {
		return fmt.Errorf("clear state: %w", apierror.ErrStorageFailure)
	}
	return nil
}
