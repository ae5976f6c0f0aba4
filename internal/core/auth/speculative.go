// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package auth

import (
	"context"

	"github.com/cometbft/cometbft/libs/log"
	"gitlab.com/accumulatenetwork/keyauth/internal/logging"
	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
)

type ExpanderOptions struct {
	Policy      KeyOrderingPolicy
	Verifier    Verifier
	NewFactory  func() SigningFactory
	Sources     SourceFactory
	Logger      log.Logger
	MaxKeyDepth int

	SkipUnusedSignatures bool
}

// Expander verifies a transaction's signatures speculatively, before
// consensus, so that rationalization can reuse the results. An Expander holds
// no per-transaction state and may be used concurrently for different
// transactions.
type Expander struct {
	expander
	verifier   Verifier
	newFactory func() SigningFactory
	sources    SourceFactory
	logger     logging.OptionalLogger
}

func NewExpander(opts ExpanderOptions) *Expander {
	x := new(Expander)
	x.policy = opts.Policy
	x.maxDepth = opts.MaxKeyDepth
	x.opportunistic = !opts.SkipUnusedSignatures
	x.verifier = opts.Verifier
	x.newFactory = opts.NewFactory
	x.sources = opts.Sources
	x.logger.Set(opts.Logger, "module", "auth")
	return x
}

// ExpandIn builds and verifies the transaction's signatures and stores them on
// the context. Authorization failures are not reported: the transaction is
// left without speculative signatures and rationalization decides its fate.
// An error means the policy, source factory, or verifier failed.
func (x *Expander) ExpandIn(ctx context.Context, tc *TxnContext) error {
	tc.Signatures = nil

	src, err := tc.Source(x.sources)
	if err != nil {
		if _, err := asFailure(err); err != nil {
			return errors.UnknownError.WithFormat("load signatures: %w", err)
		}
		mExpanded.WithLabelValues("rejected").Inc()
		return nil
	}
	src.Reset()

	factory := x.newFactory()
	factory.ResetFor(tc.Txn)

	e, err := x.expand(tc.Txn, src, factory)
	if err != nil {
		return errors.UnknownError.Wrap(err)
	}
	if e.payerFailure != nil {
		x.logger.Debug("Skipping speculative verification", "hash", logging.AsHex(tc.Txn.Hash()).Slice(0, 4), "error", e.payerFailure)
		mExpanded.WithLabelValues("rejected").Inc()
		return nil
	}

	sigs := make([]*protocol.SignatureObject, 0, len(e.payerSigs)+len(e.otherSigs))
	sigs = append(sigs, e.payerSigs...)
	sigs = append(sigs, e.otherSigs...)
	err = x.verifier.Verify(ctx, sigs)
	if err != nil {
		return errors.UnknownError.WithFormat("verify: %w", err)
	}

	tc.Signatures = sigs
	mExpanded.WithLabelValues("verified").Inc()
	return nil
}
