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

// State is the state of a rationalization pass.
type State int

const (
	StateIdle State = iota
	StatePayerExpansion
	StatePayerFailed
	StateOtherPartiesExpansion
	StateReconciliation
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePayerExpansion:
		return "payerExpansion"
	case StatePayerFailed:
		return "payerFailed"
	case StateOtherPartiesExpansion:
		return "otherPartiesExpansion"
	case StateReconciliation:
		return "reconciliation"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

type RationalizerOptions struct {
	Policy   KeyOrderingPolicy
	Verifier Verifier
	Factory  SigningFactory
	Sources  SourceFactory
	Logger   log.Logger

	// MaxKeyDepth limits key nesting. Zero means
	// [protocol.DefaultMaxKeyDepth].
	MaxKeyDepth int

	// SkipUnusedSignatures disables verifying signatures that no required key
	// asked for.
	SkipUnusedSignatures bool
}

// Rationalizer decides, when a transaction is executed, whether the signature
// verification done before consensus can be trusted or must be done again. A
// Rationalizer is reused for one transaction after another and must not be
// used concurrently.
type Rationalizer struct {
	expander
	verifier Verifier
	factory  SigningFactory
	sources  SourceFactory
	logger   logging.OptionalLogger

	state       State
	finalStatus errors.Status
}

func NewRationalizer(opts RationalizerOptions) *Rationalizer {
	r := new(Rationalizer)
	r.policy = opts.Policy
	r.maxDepth = opts.MaxKeyDepth
	r.opportunistic = !opts.SkipUnusedSignatures
	r.verifier = opts.Verifier
	r.factory = opts.Factory
	r.sources = opts.Sources
	r.logger.Set(opts.Logger, "module", "auth")
	return r
}

// State returns the state of the current or last pass.
func (r *Rationalizer) State() State { return r.state }

// FinalStatus returns the status of the last pass.
func (r *Rationalizer) FinalStatus() errors.Status { return r.finalStatus }

// reconciliation records whether a signature group was reused as is or had to
// be verified again.
type reconciliation struct {
	Reused     bool
	Signatures []*protocol.SignatureObject
}

// PerformFor rationalizes the transaction's signatures and attaches the
// resulting [Authorization] to the context. Authorization failures are
// reported by the authorization's status. An error means the pass could not
// be completed: the policy, source factory, or verifier failed.
func (r *Rationalizer) PerformFor(ctx context.Context, tc *TxnContext) error {
	r.state = StateIdle
	r.finalStatus = 0
	tc.Authorization = nil

	src, err := tc.Source(r.sources)
	if err != nil {
		failure, err := asFailure(err)
		if err != nil {
			return errors.UnknownError.WithFormat("load signatures: %w", err)
		}
		r.payerFailed(tc, failure)
		return nil
	}
	src.Reset()
	r.factory.ResetFor(tc.Txn)

	r.state = StatePayerExpansion
	e, err := r.expandPayer(tc.Txn, src, r.factory)
	if err != nil {
		return errors.UnknownError.Wrap(err)
	}
	if e.payerFailure != nil {
		r.payerFailed(tc, e.payerFailure)
		return nil
	}

	r.state = StateOtherPartiesExpansion
	err = r.expandOthers(e, tc.Txn, src, r.factory)
	if err != nil {
		return errors.UnknownError.Wrap(err)
	}

	r.state = StateReconciliation
	existing := tc.Signatures
	payer, err := r.reconcile(ctx, window(existing, 0, len(e.payerSigs)), e.payerSigs)
	if err != nil {
		return errors.UnknownError.WithFormat("verify payer signatures: %w", err)
	}
	others, err := r.reconcile(ctx, window(existing, len(e.payerSigs), len(existing)), e.otherSigs)
	if err != nil {
		return errors.UnknownError.WithFormat("verify other party signatures: %w", err)
	}

	var usedSync bool
	if !payer.Reused || !others.Reused {
		usedSync = true
		canonical := make([]*protocol.SignatureObject, 0, len(payer.Signatures)+len(others.Signatures))
		canonical = append(canonical, payer.Signatures...)
		canonical = append(canonical, others.Signatures...)
		tc.Signatures = canonical
	}

	r.finalStatus = errors.OK
	if e.otherFailure != nil {
		r.finalStatus = e.otherFailure.Code
	}
	tc.Authorization = &Authorization{
		PayerKey:     e.payerKey,
		OtherKeys:    e.otherKeys,
		Signatures:   tc.Signatures,
		Status:       r.finalStatus,
		UsedSyncPath: usedSync,
	}
	r.state = StateDone

	mRationalized.WithLabelValues(r.finalStatus.String(), syncLabel(usedSync)).Inc()
	if e.otherFailure != nil {
		r.logger.Debug("Other parties could not be resolved", "hash", logging.AsHex(tc.Txn.Hash()).Slice(0, 4), "error", e.otherFailure)
	}
	r.logger.Debug("Rationalized", "hash", logging.AsHex(tc.Txn.Hash()).Slice(0, 4), "status", r.finalStatus, "sync", usedSync, "signatures", len(tc.Signatures))
	return nil
}

func (r *Rationalizer) payerFailed(tc *TxnContext, failure *errors.Error) {
	r.state = StatePayerFailed
	r.finalStatus = failure.Code
	tc.Authorization = &Authorization{Status: failure.Code}
	mRationalized.WithLabelValues(r.finalStatus.String(), syncLabel(false)).Inc()
	r.logger.Debug("Payer expansion failed", "hash", logging.AsHex(tc.Txn.Hash()).Slice(0, 4), "error", failure)
}

// reconcile reuses the existing signatures if they carry exactly the same
// public keys and signature bytes as the fresh ones and have all been
// verified. Otherwise it verifies the fresh signatures.
func (r *Rationalizer) reconcile(ctx context.Context, existing, fresh []*protocol.SignatureObject) (reconciliation, error) {
	if sameSignatures(existing, fresh) {
		mGroups.WithLabelValues("reused").Inc()
		return reconciliation{Reused: true, Signatures: existing}, nil
	}

	if len(fresh) > 0 {
		err := r.verifier.Verify(ctx, fresh)
		if err != nil {
			return reconciliation{}, err
		}
	}
	mGroups.WithLabelValues("reverified").Inc()
	return reconciliation{Reused: false, Signatures: fresh}, nil
}

func sameSignatures(existing, fresh []*protocol.SignatureObject) bool {
	if len(existing) != len(fresh) {
		return false
	}
	for i, sig := range fresh {
		if existing[i] == nil || existing[i].Result == protocol.Unverified {
			return false
		}
		if !existing[i].SameSignature(sig) {
			return false
		}
	}
	return true
}

// window returns up to n signatures starting at start.
func window(sigs []*protocol.SignatureObject, start, n int) []*protocol.SignatureObject {
	if start >= len(sigs) {
		return nil
	}
	end := start + n
	if end > len(sigs) {
		end = len(sigs)
	}
	return sigs[start:end]
}

func syncLabel(sync bool) string {
	if sync {
		return "sync"
	}
	return "reused"
}
