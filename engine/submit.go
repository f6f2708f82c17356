package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/defistate/wasm-arb-go/arbitrage"
	"github.com/defistate/wasm-arb-go/notifier"
	"github.com/defistate/wasm-arb-go/protocols/cosmostx"
	"github.com/holiman/uint256"
)

var (
	// ErrBiddingNotConfigured is returned when a trade is found but bundle bidding lacks a wallet, a bid rate or
	// a relay.
	ErrBiddingNotConfigured = errors.New("bidding is not configured")
	ErrBuild                = errors.New("failed to build trade messages")
	ErrSign                 = errors.New("failed to sign transaction")
	ErrRelay                = errors.New("bundle relay call failed")
)

const soloMemo = "memo"

// Submit executes trade as a bundle with a bid. When raceTx is set, the bundle asks to be ordered right after that
// pending transaction. The account sequence advances only when the relay accepts the bundle with code 0.
func (l *Loop) Submit(ctx context.Context, trade *arbitrage.OptimalTrade, raceTx []byte) error {
	bidding := l.cfg.Bidding
	offer := l.cfg.Params.OfferInfo
	if bidding.Relay == nil || bidding.BidWallet == "" || l.cfg.Params.BidRate == nil || trade.Bid == nil || !offer.IsNative() {
		l.cfg.Notifier.Notify(ctx, "Please set up the bidding variables (bid wallet, bid rate, relay url) in the config", notifier.Console)
		l.metrics.submissions.WithLabelValues("not_configured").Inc()
		return ErrBiddingNotConfigured
	}

	msgs, _, err := l.cfg.Builder.Build(trade, l.cfg.Account.Address, l.cfg.FlashloanRouter)
	if err != nil {
		l.metrics.submissions.WithLabelValues("build_error").Inc()
		return fmt.Errorf("%w: %v", ErrBuild, err)
	}

	signerData := SignerData{
		ChainID:       l.cfg.Account.ChainID,
		AccountNumber: l.cfg.Account.AccountNumber,
		Sequence:      l.sequence,
	}
	fee := trade.Path.TxFee

	if trade.Profit.Cmp(big.NewInt(l.cfg.SoloProfitFloor)) > 0 {
		l.submitSolo(ctx, msgs, fee, signerData)
	}

	bid := l.bidAmount(trade.Bid)
	bidMsg := cosmostx.MsgSend{
		FromAddress: l.cfg.Account.Address,
		ToAddress:   bidding.BidWallet,
		Amount:      []cosmostx.Coin{{Denom: offer.NativeToken.Denom, Amount: bid.Dec()}},
	}
	msgs = append(msgs, bidMsg.Any())

	tx, err := l.cfg.Signer.Sign(msgs, fee, "", signerData)
	if err != nil {
		l.metrics.submissions.WithLabelValues("sign_error").Inc()
		return fmt.Errorf("%w: %v", ErrSign, err)
	}

	txs := [][]byte{tx}
	if raceTx != nil {
		txs = [][]byte{raceTx, tx}
	}
	bundle, err := bidding.Relay.SignBundle(txs, l.cfg.Account.Address)
	if err != nil {
		l.metrics.submissions.WithLabelValues("sign_error").Inc()
		return fmt.Errorf("%w: signing bundle: %v", ErrSign, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	res, err := bidding.Relay.SendBundle(callCtx, bundle, 0, true)
	cancel()
	if err != nil {
		l.metrics.submissions.WithLabelValues("relay_error").Inc()
		return fmt.Errorf("%w: %v", ErrRelay, err)
	}

	report, detail := l.report(trade, res)
	l.cfg.Notifier.Notify(ctx, report, notifier.All)
	if detail != "" {
		l.cfg.Notifier.Notify(ctx, detail, notifier.Console)
	}

	if res.Code == 0 {
		l.sequence++
		l.metrics.sequence.Set(float64(l.sequence))
		l.metrics.submissions.WithLabelValues("accepted").Inc()
	} else {
		l.metrics.submissions.WithLabelValues("rejected").Inc()
		l.logger.Warn("bundle rejected", "code", res.Code, "error", res.Error, "sequence", l.sequence)
	}

	return l.sleep(ctx, l.cfg.SubmitDelay)
}

// submitSolo broadcasts the trade without a bid directly to the node. Its outcome never affects the sequence.
func (l *Loop) submitSolo(ctx context.Context, msgs []cosmostx.Any, fee cosmostx.Fee, data SignerData) {
	tx, err := l.cfg.Signer.Sign(msgs, fee, soloMemo, data)
	if err != nil {
		l.logger.Warn("failed to sign solo transaction", "error", err)
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()
	res, err := l.cfg.Broadcaster.BroadcastTxSync(callCtx, tx)
	if err != nil {
		l.logger.Warn("solo broadcast failed", "error", err)
		return
	}
	l.logger.Info("solo broadcast result", "code", res.Code, "log", res.Log, "hash", res.Hash)
}

// bidAmount is the computed bid raised to the protocol minimum.
func (l *Loop) bidAmount(computed *big.Int) *uint256.Int {
	minimum := uint256.NewInt(l.cfg.MinimumBid)
	bid, overflow := uint256.FromBig(computed)
	if overflow || computed.Sign() < 0 {
		return minimum
	}
	if bid.Lt(minimum) {
		return minimum
	}
	return bid
}

// report renders the operator summary of a bundle result and, when any transaction failed, the raw failing
// result for the console.
func (l *Loop) report(trade *arbitrage.OptimalTrade, res BundleResult) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "**wallet:** %s\t **block:** %d\t **profit:** %s", l.cfg.Account.Address, res.DesiredHeight, trade.Profit)
	if res.Code != 0 {
		fmt.Fprintf(&b, "\t **error code:** %d\n**error:** %s\n", res.Code, res.Error)
	}

	var detail string
	for i, r := range res.CheckTxs {
		if r.Code != 0 {
			fmt.Fprintf(&b, "**CheckTx Error:** index: %d\t %s\n", i, r.Log)
			detail = fmt.Sprintf("check tx %d: code %d: %s", i, r.Code, r.Log)
		}
	}
	for i, r := range res.DeliverTxs {
		if r.Code != 0 {
			fmt.Fprintf(&b, "**DeliverTx Error:** index: %d\t %s\n", i, r.Log)
			detail = fmt.Sprintf("deliver tx %d: code %d: %s", i, r.Code, r.Log)
		}
	}
	return b.String(), detail
}
