// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package execute

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/cometbft/cometbft/libs/log"
	"gitlab.com/accumulatenetwork/keyauth/internal/core/auth"
	"gitlab.com/accumulatenetwork/keyauth/internal/logging"
	"gitlab.com/accumulatenetwork/keyauth/pkg/errors"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Policy     auth.KeyOrderingPolicy
	Accounts   auth.AccountLookup
	Verifier   auth.Verifier
	NewFactory func() auth.SigningFactory
	Logger     log.Logger

	// IngestWorkers is the number of transactions expanded concurrently. Zero
	// means one per CPU.
	IngestWorkers int

	MaxKeyDepth          int
	SkipUnusedSignatures bool
}

// Executor runs the authorization passes of a processing pipeline: the
// speculative expansion of incoming transactions, which may run concurrently,
// and the rationalization of transactions in consensus order, which runs one
// transaction at a time.
type Executor struct {
	expander     *auth.Expander
	rationalizer *auth.Rationalizer
	check        *auth.KeyActivationCheck
	accounts     auth.AccountLookup
	workers      int
	logger       logging.OptionalLogger

	mu sync.Mutex
}

// Outcome is the authorization outcome of a transaction.
type Outcome struct {
	Context *auth.TxnContext
	Status  errors.Status

	// Error is set if the authorization pass could not be completed.
	Error error
}

func NewExecutor(opts Options) *Executor {
	x := new(Executor)
	x.logger.Set(opts.Logger, "module", "executor")
	x.accounts = opts.Accounts
	x.workers = opts.IngestWorkers
	if x.workers <= 0 {
		x.workers = runtime.NumCPU()
	}

	x.expander = auth.NewExpander(auth.ExpanderOptions{
		Policy:               opts.Policy,
		Verifier:             opts.Verifier,
		NewFactory:           opts.NewFactory,
		Logger:               opts.Logger,
		MaxKeyDepth:          opts.MaxKeyDepth,
		SkipUnusedSignatures: opts.SkipUnusedSignatures,
	})
	x.rationalizer = auth.NewRationalizer(auth.RationalizerOptions{
		Policy:               opts.Policy,
		Verifier:             opts.Verifier,
		Factory:              opts.NewFactory(),
		Logger:               opts.Logger,
		MaxKeyDepth:          opts.MaxKeyDepth,
		SkipUnusedSignatures: opts.SkipUnusedSignatures,
	})
	x.check = &auth.KeyActivationCheck{
		Verifier:    opts.Verifier,
		NewFactory:  opts.NewFactory,
		MaxKeyDepth: opts.MaxKeyDepth,
	}
	return x
}

// Ingest creates the context of each transaction and verifies its signatures
// speculatively. Speculative failures are logged and otherwise ignored; the
// transaction falls back to synchronous verification when it is handled.
func (x *Executor) Ingest(ctx context.Context, txns []*protocol.Transaction) []*auth.TxnContext {
	contexts := make([]*auth.TxnContext, len(txns))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(x.workers)
	for i, txn := range txns {
		tc := auth.NewTxnContext(txn)
		contexts[i] = tc
		g.Go(func() error {
			err := x.expandIn(ctx, tc)
			if err != nil {
				x.logger.Error("Speculative verification failed", "hash", logging.AsHex(txn.Hash()).Slice(0, 4), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return contexts
}

func (x *Executor) expandIn(ctx context.Context, tc *auth.TxnContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			tc.Signatures = nil
			err = errors.InternalError.WithFormat("panicked: %v", r)
		}
	}()
	return x.expander.ExpandIn(ctx, tc)
}

// Handle rationalizes the transaction's signatures and evaluates the result.
// Any failure to complete the pass, including a panic, is reported as
// [errors.AuthorizationFailed].
func (x *Executor) Handle(ctx context.Context, tc *auth.TxnContext) *Outcome {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := &Outcome{Context: tc}
	err := x.performFor(ctx, tc)
	if err != nil {
		tc.Authorization = nil
		out.Status = errors.AuthorizationFailed
		out.Error = err
		x.logger.Error("Authorization could not be completed", "hash", logging.AsHex(tc.Txn.Hash()).Slice(0, 4), "error", err, "stack", fmt.Sprintf("%+v\n", err))
		mOutcomes.WithLabelValues(out.Status.String()).Inc()
		return out
	}

	out.Status = tc.Authorization.Evaluate()
	mOutcomes.WithLabelValues(out.Status.String()).Inc()
	x.logger.Info("Authorized", "hash", logging.AsHex(tc.Txn.Hash()).Slice(0, 4), "status", out.Status, "sync", tc.Authorization.UsedSyncPath)
	return out
}

func (x *Executor) performFor(ctx context.Context, tc *auth.TxnContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.InternalError.WithFormat("panicked: %v", r)
		}
	}()
	return x.rationalizer.PerformFor(ctx, tc)
}

// AdHocCheck returns an activation check for accounts touched while the
// transaction executes. The transaction must have been handled.
func (x *Executor) AdHocCheck(tc *auth.TxnContext) *auth.AdHocActivationCheck {
	return auth.NewAdHocActivationCheck(x.accounts, x.check, tc)
}

// HandleSet ingests a set of transactions and handles them in order.
func HandleSet(ctx context.Context, x *Executor, txns []*protocol.Transaction) []*Outcome {
	contexts := x.Ingest(ctx, txns)
	results := make([]*Outcome, len(contexts))
	for i, tc := range contexts {
		results[i] = x.Handle(ctx, tc)
	}
	return results
}
