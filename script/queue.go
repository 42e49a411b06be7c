package script

import (
	"sync"
	"sync/atomic"

	"github.com/bsv-blockchain/chaincore/model"
)

// Check is one unit of script-verification work: an input's unlocking
// script, the locking script of the coin it claims to spend, and enough
// context to re-run the check with relaxed flags on a strict-encoding
// failure.
type Check struct {
	Tx              *model.Tx
	InputIndex      int
	LockingScript   []byte
	UnlockingScript []byte
	Flags           Flag

	// StrictFailureIsDoS is set by the worker after a failed check: false
	// when the failure was under strict encoding only and the check passes
	// under relaxed flags (per §4.7, invalid but not DoS-scored), true when
	// the failure persists under relaxed flags or no strict flag was set.
	StrictFailureIsDoS bool
}

// run executes the check, retrying without the strict-encoding flag on
// failure so the caller can distinguish an encoding nitpick from a genuine
// script failure.
func (c *Check) run(v Verifier) bool {
	if v.Verify(c.UnlockingScript, c.LockingScript, c.Tx, c.InputIndex, c.Flags) {
		return true
	}

	if c.Flags&FlagStrictEnc == 0 {
		c.StrictFailureIsDoS = true
		return false
	}

	relaxed := c.Flags &^ FlagStrictEnc
	if v.Verify(c.UnlockingScript, c.LockingScript, c.Tx, c.InputIndex, relaxed) {
		c.StrictFailureIsDoS = false
		return false
	}

	c.StrictFailureIsDoS = true

	return false
}

// Control collects the checks queued for one block and blocks on Wait until
// every worker has reported in. A failure short-circuits: once any check
// fails, workers skip the checks still queued, and Wait returns false after
// the queue has drained.
type Control struct {
	verifier Verifier

	queue chan *Check
	done  chan struct{}

	wg       sync.WaitGroup
	failed   atomic.Bool
	failedOn atomic.Pointer[Check]
}

// NewControl starts workers draining queue concurrently. Closing the
// returned Control's queue (via Wait) stops the workers once drained.
func NewControl(verifier Verifier, workers int) *Control {
	if workers < 1 {
		workers = 1
	}

	c := &Control{
		verifier: verifier,
		queue:    make(chan *Check, 128),
		done:     make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		c.wg.Add(1)

		go c.worker()
	}

	return c
}

func (c *Control) worker() {
	defer c.wg.Done()

	for check := range c.queue {
		if c.failed.Load() {
			continue
		}

		if !check.run(c.verifier) {
			if c.failed.CompareAndSwap(false, true) {
				c.failedOn.Store(check)
			}
		}
	}
}

// Add enqueues one check. It must not be called after Wait.
func (c *Control) Add(check *Check) {
	c.queue <- check
}

// Wait closes the queue, waits for all workers to drain it, and reports
// whether every queued check succeeded.
func (c *Control) Wait() bool {
	close(c.queue)
	c.wg.Wait()

	return !c.failed.Load()
}

// FailedCheck returns the check that first failed, or nil if Wait returned
// true.
func (c *Control) FailedCheck() *Check {
	return c.failedOn.Load()
}
