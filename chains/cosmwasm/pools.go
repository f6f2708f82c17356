// Package cosmwasm holds the chain-specific pieces of the bot: pool state queries, trade message construction and
// per-path fee assignment for CosmWasm AMMs.
package cosmwasm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/defistate/wasm-arb-go/protocols/amm"
	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var ErrPoolState = errors.New("invalid pool state")

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SmartQuerier runs read-only contract queries.
type SmartQuerier interface {
	SmartQuery(ctx context.Context, contract string, query any) (json.RawMessage, error)
}

var (
	poolQuery = map[string]struct{}{"pool": {}}
	infoQuery = map[string]struct{}{"info": {}}
)

// PoolConfig describes one tracked pool. Fees are percentages.
type PoolConfig struct {
	Address   string
	InputFee  decimal.Decimal
	OutputFee decimal.Decimal
	LPRatio   decimal.Decimal
	Factory   string
	Router    string
}

// amount accepts Uint128 values sent either as strings or as JSON numbers.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amount(n.String())
	return nil
}

func (a amount) parse() (uint256.Int, error) {
	if a == "" {
		return uint256.Int{}, nil
	}
	return asset.ParseAmount(string(a))
}

type poolAsset struct {
	Info   json.RawMessage `json:"info"`
	Amount amount          `json:"amount"`
}

type poolResponse struct {
	Assets     []poolAsset `json:"assets"`
	TotalShare amount      `json:"total_share"`
}

type junoswapInfoResponse struct {
	Token1Reserve amount          `json:"token1_reserve"`
	Token1Denom   json.RawMessage `json:"token1_denom"`
	Token2Reserve amount          `json:"token2_reserve"`
	Token2Denom   json.RawMessage `json:"token2_denom"`
	LPTokenSupply amount          `json:"lp_token_supply"`
}

// poolState is a decoded state answer: both sides in pool order plus the dex dialect it was written in.
type poolState struct {
	assets [2]asset.Asset
	share  uint256.Int
	dex    amm.DexName
}

func decodeAsset(rawInfo json.RawMessage, amt amount) (asset.Asset, error) {
	var info asset.Info
	if err := json.Unmarshal(rawInfo, &info); err != nil {
		return asset.Asset{}, err
	}
	v, err := amt.parse()
	if err != nil {
		return asset.Asset{}, err
	}
	return asset.Asset{Info: info, Amount: v}, nil
}

// isWyndexInfo reports whether an asset info uses the {"native":d} / {"token":addr} shapes.
func isWyndexInfo(rawInfo json.RawMessage) bool {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(rawInfo, &keys); err != nil {
		return false
	}
	if _, ok := keys["native"]; ok {
		return true
	}
	token, ok := keys["token"]
	return ok && len(token) > 0 && token[0] == '"'
}

func decodePoolResponse(raw json.RawMessage) (poolState, error) {
	var resp poolResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return poolState{}, fmt.Errorf("%w: %v", ErrPoolState, err)
	}
	if len(resp.Assets) != 2 {
		return poolState{}, fmt.Errorf("%w: %d assets", ErrPoolState, len(resp.Assets))
	}

	state := poolState{dex: amm.DexDefault}
	for i, a := range resp.Assets {
		decoded, err := decodeAsset(a.Info, a.Amount)
		if err != nil {
			return poolState{}, fmt.Errorf("%w: asset %d: %v", ErrPoolState, i, err)
		}
		state.assets[i] = decoded
		if isWyndexInfo(a.Info) {
			state.dex = amm.DexWyndex
		}
	}
	share, err := resp.TotalShare.parse()
	if err != nil {
		return poolState{}, fmt.Errorf("%w: total_share: %v", ErrPoolState, err)
	}
	state.share = share
	return state, nil
}

func decodeJunoswapInfo(raw json.RawMessage) (poolState, error) {
	var resp junoswapInfoResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return poolState{}, fmt.Errorf("%w: %v", ErrPoolState, err)
	}
	if resp.Token1Denom == nil || resp.Token2Denom == nil {
		return poolState{}, fmt.Errorf("%w: missing token denoms", ErrPoolState)
	}

	state := poolState{dex: amm.DexJunoswap}
	var err error
	if state.assets[0], err = decodeAsset(resp.Token1Denom, resp.Token1Reserve); err != nil {
		return poolState{}, fmt.Errorf("%w: token1: %v", ErrPoolState, err)
	}
	if state.assets[1], err = decodeAsset(resp.Token2Denom, resp.Token2Reserve); err != nil {
		return poolState{}, fmt.Errorf("%w: token2: %v", ErrPoolState, err)
	}
	if state.share, err = resp.LPTokenSupply.parse(); err != nil {
		return poolState{}, fmt.Errorf("%w: lp_token_supply: %v", ErrPoolState, err)
	}
	return state, nil
}

// queryState asks {"pool":{}} first and falls back to the junoswap {"info":{}} query.
func queryState(ctx context.Context, q SmartQuerier, address string) (poolState, error) {
	raw, err := q.SmartQuery(ctx, address, poolQuery)
	if err == nil {
		if state, err := decodePoolResponse(raw); err == nil {
			return state, nil
		}
	}
	raw, infoErr := q.SmartQuery(ctx, address, infoQuery)
	if infoErr != nil {
		return poolState{}, errors.Join(err, infoErr)
	}
	return decodeJunoswapInfo(raw)
}

// InitPools queries the state of every configured pool and builds the tracked pool set. Pools that cannot be
// queried or fail validation are logged and skipped.
func InitPools(ctx context.Context, q SmartQuerier, configs []PoolConfig, logger Logger) ([]*amm.Pool, error) {
	seen := make(map[string]struct{}, len(configs))
	pools := make([]*amm.Pool, 0, len(configs))
	for _, cfg := range configs {
		if _, dup := seen[cfg.Address]; dup {
			continue
		}
		seen[cfg.Address] = struct{}{}

		state, err := queryState(ctx, q, cfg.Address)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("cannot query pool, continuing", "pool", cfg.Address, "error", err)
			continue
		}

		pool := &amm.Pool{
			Assets:         state.assets,
			TotalShare:     state.share,
			Address:        cfg.Address,
			Dex:            state.dex,
			InputFee:       cfg.InputFee,
			OutputFee:      cfg.OutputFee,
			LPRatio:        cfg.LPRatio,
			FactoryAddress: cfg.Factory,
			RouterAddress:  cfg.Router,
		}
		if err := pool.Validate(); err != nil {
			logger.Warn("skipping invalid pool", "pool", cfg.Address, "error", err)
			continue
		}
		logger.Info("pool initialized", "pool", cfg.Address, "dex", pool.Dex,
			"assets", pool.Assets[0].String()+" / "+pool.Assets[1].String(),
			"input_fee", pool.InputFee.String(), "output_fee", pool.OutputFee.String())
		pools = append(pools, pool)
	}
	if len(pools) == 0 {
		return nil, errors.New("no pool could be initialized")
	}
	return pools, nil
}

// PoolStates refreshes tracked pools from confirmed chain state.
type PoolStates struct {
	querier SmartQuerier
	logger  Logger
}

func NewPoolStates(q SmartQuerier, logger Logger) *PoolStates {
	return &PoolStates{querier: q, logger: logger}
}

// Refresh queries every pool concurrently, diffs the answers against the simulated reserves and patches the
// drifted pools in place. It returns the number of pools patched.
func (s *PoolStates) Refresh(ctx context.Context, pools []*amm.Pool) (int, error) {
	snapshot := make([]amm.Reserves, len(pools))
	errs := make([]error, len(pools))

	var wg sync.WaitGroup
	for i, pool := range pools {
		wg.Add(1)
		go func(i int, pool *amm.Pool) {
			defer wg.Done()
			snapshot[i], errs[i] = s.reserves(ctx, pool)
		}(i, pool)
	}
	wg.Wait()

	fresh := snapshot[:0]
	for i, err := range errs {
		if err != nil {
			s.logger.Warn("failed to refresh pool", "pool", pools[i].Address, "error", err)
			continue
		}
		fresh = append(fresh, snapshot[i])
	}
	if len(fresh) == 0 && len(pools) > 0 {
		return 0, fmt.Errorf("refresh: %w", errors.Join(errs...))
	}

	diff := amm.Differ(pools, fresh)
	if len(diff.Missing) > 0 {
		s.logger.Debug("pools left at simulated state", "count", len(diff.Missing))
	}
	patched, err := amm.Patcher(pools, diff)
	if err != nil {
		return 0, err
	}
	if patched > 0 {
		s.logger.Debug("pool state drift corrected", "pools", patched)
	}
	return patched, nil
}

func (s *PoolStates) reserves(ctx context.Context, pool *amm.Pool) (amm.Reserves, error) {
	query := poolQuery
	if pool.Dex == amm.DexJunoswap {
		query = infoQuery
	}
	raw, err := s.querier.SmartQuery(ctx, pool.Address, query)
	if err != nil {
		return amm.Reserves{}, err
	}

	var state poolState
	if pool.Dex == amm.DexJunoswap {
		state, err = decodeJunoswapInfo(raw)
	} else {
		state, err = decodePoolResponse(raw)
	}
	if err != nil {
		return amm.Reserves{}, err
	}

	r := amm.Reserves{Address: pool.Address, HasShare: true, Share: state.share}
	for i := range pool.Assets {
		side, ok := matchSide(state.assets, pool.Assets[i].Info)
		if !ok {
			return amm.Reserves{}, fmt.Errorf("%w: %s no longer trades %s", ErrPoolState, pool.Address, pool.Assets[i].Info)
		}
		r.Amounts[i] = state.assets[side].Amount
	}
	return r, nil
}

func matchSide(assets [2]asset.Asset, info asset.Info) (int, bool) {
	for i := range assets {
		if assets[i].Info.Equal(info) {
			return i, true
		}
	}
	return 0, false
}
