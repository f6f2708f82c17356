package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/defistate/wasm-arb-go/chains/cosmwasm"
	"github.com/defistate/wasm-arb-go/protocols/asset"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const DefaultMaxPathHops = 3

// BotConfig is the YAML configuration of the arbitrage bot. ${VAR} references are expanded from the environment
// after loading an optional .env file.
type BotConfig struct {
	ChainID      string `yaml:"chain_id"`
	RPCURL       string `yaml:"rpc_url"`
	MempoolLimit int    `yaml:"mempool_limit"`
	MetricsAddr  string `yaml:"metrics_addr"`

	Wallet WalletConfig `yaml:"wallet"`

	OfferAsset          AssetInfoConfig `yaml:"offer_asset"`
	FlashloanRouter     string          `yaml:"flashloan_router"`
	FlashloanFeePercent decimal.Decimal `yaml:"flashloan_fee_percent"`
	MaxPathHops         int             `yaml:"max_path_hops"`
	MaxSpread           string          `yaml:"max_spread"`
	RefreshPools        bool            `yaml:"refresh_pools"`

	Pools            []PoolConfig            `yaml:"pools"`
	TxFees           map[int]FeeConfig       `yaml:"tx_fees"`
	ProfitThresholds map[int]decimal.Decimal `yaml:"profit_thresholds"`

	Bidding *BiddingConfig `yaml:"bidding"`
	Slack   *SlackConfig   `yaml:"slack"`
	Engine  EngineConfig   `yaml:"engine"`
}

type WalletConfig struct {
	Address string `yaml:"address"`
	// PrivateKey is a hex secp256k1 key.
	PrivateKey string `yaml:"private_key"`
}

// AssetInfoConfig names either a bank denom or a CW20 contract.
type AssetInfoConfig struct {
	Denom        string `yaml:"denom"`
	ContractAddr string `yaml:"contract_addr"`
}

func (a AssetInfoConfig) Info() (asset.Info, error) {
	switch {
	case a.Denom != "" && a.ContractAddr != "":
		return asset.Info{}, errors.New("config: asset sets both denom and contract_addr")
	case a.Denom != "":
		return asset.Native(a.Denom), nil
	case a.ContractAddr != "":
		return asset.CW20(a.ContractAddr), nil
	default:
		return asset.Info{}, errors.New("config: asset needs a denom or a contract_addr")
	}
}

type PoolConfig struct {
	Address   string          `yaml:"address"`
	InputFee  decimal.Decimal `yaml:"input_fee"`
	OutputFee decimal.Decimal `yaml:"output_fee"`
	LPRatio   decimal.Decimal `yaml:"lp_ratio"`
	Factory   string          `yaml:"factory"`
	Router    string          `yaml:"router"`
}

type CoinConfig struct {
	Denom  string `yaml:"denom"`
	Amount string `yaml:"amount"`
}

type FeeConfig struct {
	Amount []CoinConfig `yaml:"amount"`
	Gas    uint64       `yaml:"gas"`
}

func (f FeeConfig) Fee() cosmostx.Fee {
	fee := cosmostx.Fee{GasLimit: f.Gas}
	for _, c := range f.Amount {
		fee.Amount = append(fee.Amount, cosmostx.Coin{Denom: c.Denom, Amount: c.Amount})
	}
	return fee
}

type BiddingConfig struct {
	BidWallet string           `yaml:"bid_wallet"`
	BidRate   *decimal.Decimal `yaml:"bid_rate"`
	RelayURL  string           `yaml:"relay_url"`
	// RelayPrivateKey signs bundles; the wallet key is used when empty.
	RelayPrivateKey string `yaml:"relay_private_key"`
}

type SlackConfig struct {
	APIToken string `yaml:"api_token"`
	Channel  string `yaml:"channel"`
}

// EngineConfig overrides the loop defaults; zero values keep them.
type EngineConfig struct {
	CooldownSteps   int           `yaml:"cooldown_steps"`
	PollBackoff     time.Duration `yaml:"poll_backoff"`
	SubmitDelay     time.Duration `yaml:"submit_delay"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	CallTimeout     time.Duration `yaml:"call_timeout"`
	SoloProfitFloor int64         `yaml:"solo_profit_floor"`
	MinimumBid      uint64        `yaml:"minimum_bid"`
}

// LoadConfig reads the YAML file at path. A .env file next to the working directory is loaded first when present.
func LoadConfig(path string) (*BotConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands environment references in data and decodes it.
func Parse(data []byte) (*BotConfig, error) {
	var cfg BotConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.MaxPathHops == 0 {
		cfg.MaxPathHops = DefaultMaxPathHops
	}
	if cfg.MaxSpread == "" {
		cfg.MaxSpread = cosmwasm.DefaultMaxSpread
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *BotConfig) validate() error {
	if c.ChainID == "" {
		return errors.New("config: chain_id is required")
	}
	if c.RPCURL == "" {
		return errors.New("config: rpc_url is required")
	}
	if c.Wallet.Address == "" {
		return errors.New("config: wallet.address is required")
	}
	if c.Wallet.PrivateKey == "" {
		return errors.New("config: wallet.private_key is required")
	}
	if _, err := c.OfferAsset.Info(); err != nil {
		return err
	}
	if c.FlashloanRouter == "" {
		return errors.New("config: flashloan_router is required")
	}
	if len(c.Pools) == 0 {
		return errors.New("config: pools is required")
	}
	for i, p := range c.Pools {
		if p.Address == "" {
			return fmt.Errorf("config: pools[%d].address is required", i)
		}
	}
	if c.MaxPathHops < 2 {
		return errors.New("config: max_path_hops must be at least 2")
	}
	if len(c.TxFees) == 0 || len(c.ProfitThresholds) == 0 {
		return errors.New("config: tx_fees and profit_thresholds are required")
	}
	if c.Slack != nil && (c.Slack.APIToken == "" || c.Slack.Channel == "") {
		return errors.New("config: slack needs api_token and channel")
	}
	return nil
}

// PoolConfigs converts the pool list for cosmwasm.InitPools.
func (c *BotConfig) PoolConfigs() []cosmwasm.PoolConfig {
	out := make([]cosmwasm.PoolConfig, len(c.Pools))
	for i, p := range c.Pools {
		out[i] = cosmwasm.PoolConfig(p)
	}
	return out
}

// PathFees converts the fee tables for cosmwasm.SetPathFees.
func (c *BotConfig) PathFees() cosmwasm.PathFees {
	fees := cosmwasm.PathFees{
		TxFees:           make(map[int]cosmostx.Fee, len(c.TxFees)),
		ProfitThresholds: c.ProfitThresholds,
	}
	for n, f := range c.TxFees {
		fees.TxFees[n] = f.Fee()
	}
	return fees
}
