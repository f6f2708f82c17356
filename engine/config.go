package engine

import (
	"errors"
	"time"

	"github.com/defistate/wasm-arb-go/arbitrage"
	"github.com/defistate/wasm-arb-go/protocols/amm"
)

const (
	DefaultCooldownSteps   = 5
	DefaultPollBackoff     = 20 * time.Second
	DefaultSubmitDelay     = 5 * time.Second
	DefaultSoloProfitFloor = 100000
	DefaultMinimumBid      = 651
	DefaultPollInterval    = 50 * time.Millisecond
	DefaultCallTimeout     = 10 * time.Second
)

// Account is the trading wallet and its replay-protection state at startup.
type Account struct {
	Address       string
	ChainID       string
	AccountNumber uint64
	Sequence      uint64
}

// Bidding configures bundle submission. A loop without a complete Bidding config still runs but abandons every
// trade it finds.
type Bidding struct {
	// BidWallet receives the bid transfer.
	BidWallet string
	// Relay is nil when bundles are disabled.
	Relay BundleRelay
}

// Config holds the collaborators and tuning of a Loop.
type Config struct {
	Pools  []*amm.Pool
	Paths  []*arbitrage.Path
	Params arbitrage.Params

	Account         Account
	Bidding         Bidding
	FlashloanRouter string

	Source      MempoolSource
	Refresher   Refresher // optional
	Builder     MessageBuilder
	Signer      Signer
	Broadcaster Broadcaster
	Notifier    Notifier
	Logger      Logger
	Metrics     *Metrics // optional

	CooldownSteps   int
	PollBackoff     time.Duration
	SubmitDelay     time.Duration
	SoloProfitFloor int64
	MinimumBid      uint64
	PollInterval    time.Duration
	CallTimeout     time.Duration
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if len(c.Pools) == 0 {
		return errors.New("config: Pools is required")
	}
	if len(c.Paths) == 0 {
		return errors.New("config: Paths is required")
	}
	if c.Params.OfferInfo.IsZero() {
		return errors.New("config: Params.OfferInfo is required")
	}
	if c.Account.Address == "" {
		return errors.New("config: Account.Address is required")
	}
	if c.Account.ChainID == "" {
		return errors.New("config: Account.ChainID is required")
	}
	if c.FlashloanRouter == "" {
		return errors.New("config: FlashloanRouter is required")
	}
	if c.Source == nil {
		return errors.New("config: Source is required")
	}
	if c.Builder == nil {
		return errors.New("config: Builder is required")
	}
	if c.Signer == nil {
		return errors.New("config: Signer is required")
	}
	if c.Broadcaster == nil {
		return errors.New("config: Broadcaster is required")
	}
	if c.Notifier == nil {
		return errors.New("config: Notifier is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	if c.CooldownSteps < 0 || c.PollBackoff < 0 || c.SubmitDelay < 0 || c.PollInterval < 0 || c.CallTimeout < 0 {
		return errors.New("config: durations and cooldown must not be negative")
	}
	return nil
}

// withDefaults fills zero tuning values.
func (c Config) withDefaults() Config {
	if c.CooldownSteps == 0 {
		c.CooldownSteps = DefaultCooldownSteps
	}
	if c.PollBackoff == 0 {
		c.PollBackoff = DefaultPollBackoff
	}
	if c.SubmitDelay == 0 {
		c.SubmitDelay = DefaultSubmitDelay
	}
	if c.SoloProfitFloor == 0 {
		c.SoloProfitFloor = DefaultSoloProfitFloor
	}
	if c.MinimumBid == 0 {
		c.MinimumBid = DefaultMinimumBid
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	return c
}
