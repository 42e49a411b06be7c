package chainstate

import "sync"

type warningSource int

const (
	warningMisc warningSource = iota
	warningForkDetected
	warningAlert
	warningSourceCount
)

// WarningBoard aggregates operator-facing warnings from independent sources
// — disk space and pre-release notices, fork detection, externally signalled
// alerts — into the two observable channels described in §7. Both channels
// report whichever wired-in source currently ranks highest and is non-empty.
type WarningBoard struct {
	mu      sync.Mutex
	sources [warningSourceCount]string
}

func (w *WarningBoard) set(source warningSource, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sources[source] = message
}

// SetMisc records a miscellaneous operator warning (disk space low,
// pre-release software).
func (w *WarningBoard) SetMisc(message string) { w.set(warningMisc, message) }

// SetForkDetected records a large-work-fork or large-work-invalid-chain
// warning.
func (w *WarningBoard) SetForkDetected(message string) { w.set(warningForkDetected, message) }

// SetAlert records an externally-signalled alert, the highest-priority
// source.
func (w *WarningBoard) SetAlert(message string) { w.set(warningAlert, message) }

// StatusBar and RPC both surface the highest-priority non-empty warning;
// they are kept as separate methods only to mirror §7's two named channels.
func (w *WarningBoard) StatusBar() string { return w.highest() }
func (w *WarningBoard) RPC() string       { return w.highest() }

func (w *WarningBoard) highest() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := len(w.sources) - 1; i >= 0; i-- {
		if w.sources[i] != "" {
			return w.sources[i]
		}
	}

	return ""
}
