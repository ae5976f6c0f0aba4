// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package verify

import (
	"context"
	"runtime"
	"time"

	"github.com/cometbft/cometbft/libs/log"
	"gitlab.com/accumulatenetwork/keyauth/internal/core/auth"
	"gitlab.com/accumulatenetwork/keyauth/internal/logging"
	"gitlab.com/accumulatenetwork/keyauth/protocol"
	"golang.org/x/sync/errgroup"
)

// BatchVerifier verifies signature batches, spreading a batch over a pool of
// workers. BatchVerifier holds no per-batch state and may be used
// concurrently.
type BatchVerifier struct {
	workers int
	logger  logging.OptionalLogger
}

var _ auth.Verifier = (*BatchVerifier)(nil)

// NewBatchVerifier returns a verifier with the given number of workers. Zero
// means one worker per CPU.
func NewBatchVerifier(workers int, logger log.Logger) *BatchVerifier {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	v := &BatchVerifier{workers: workers}
	v.logger.Set(logger, "module", "verify")
	return v
}

// Verify settles every signature object of the batch. If the context is
// canceled before the batch completes, Verify returns the context's error and
// the batch must be discarded.
func (v *BatchVerifier) Verify(parent context.Context, batch []*protocol.SignatureObject) error {
	if len(batch) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { mBatchDuration.Observe(time.Since(start).Seconds()) }()

	n := v.workers
	if len(batch) < n {
		n = len(batch)
	}

	// A single worker does not need the pool
	if n == 1 {
		for _, sig := range batch {
			if err := parent.Err(); err != nil {
				return err
			}
			settle(sig)
		}
		v.logger.Debug("Verified batch", "size", len(batch), "duration", time.Since(start))
		return nil
	}

	sigs := make(chan *protocol.SignatureObject, n)
	g, ctx := errgroup.WithContext(parent)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			for sig := range sigs {
				if err := ctx.Err(); err != nil {
					return err
				}
				settle(sig)
			}
			return nil
		})
	}
	for _, sig := range batch {
		select {
		case sigs <- sig:
		case <-ctx.Done():
		}
	}
	close(sigs)

	err := g.Wait()
	if err != nil {
		return err
	}

	// Signatures are dropped if the context is canceled while the batch is
	// being handed out
	if err := parent.Err(); err != nil {
		return err
	}
	v.logger.Debug("Verified batch", "size", len(batch), "workers", n, "duration", time.Since(start))
	return nil
}

func settle(sig *protocol.SignatureObject) {
	ok := VerifySignature(sig)
	if !sig.Settle(ok) {
		return
	}
	mVerified.WithLabelValues(sig.Scheme.String(), sig.Result.String()).Inc()
}
