package simulation

import (
	"gridrange-sim/internal/geometry"

	"github.com/sirupsen/logrus"
)

// Pair is two nodes that are mutually in range.
type Pair struct {
	A, B *Node
}

// MutuallyInRange checks both directions, since InRange uses the other node's radius.
func MutuallyInRange(a, b *Node) bool {
	return a.InRange(b) == InRange && b.InRange(a) == InRange
}

// CheckRanges finds every unordered pair of nodes that are mutually in range,
// in insertion order, and advances waypoints on convergence.
func (w *World) CheckRanges() []Pair {
	var pairs []Pair
	for i := 0; i < len(w.nodes); i++ {
		for j := i + 1; j < len(w.nodes); j++ {
			a, b := w.nodes[i], w.nodes[j]
			if !MutuallyInRange(a, b) {
				continue
			}
			pairs = append(pairs, Pair{A: a, B: b})
			w.log.WithFields(logrus.Fields{"node": a.ID, "peer": b.ID}).Debug("Nodes in range")
			w.onContact(a, b)
		}
	}
	return pairs
}

// onContact advances the waypoint of a target-bearing node that has reached a
// targetless one.
func (w *World) onContact(a, b *Node) {
	switch {
	case len(a.Targets) > 0 && len(b.Targets) == 0:
		w.advanceIfReached(a, b)
	case len(b.Targets) > 0 && len(a.Targets) == 0:
		w.advanceIfReached(b, a)
	}
}

func (w *World) advanceIfReached(seeker, anchor *Node) {
	target, ok := seeker.CurrentTarget()
	if !ok || target != anchor.Center {
		return
	}
	next, err := seeker.AdvanceTarget()
	if err != nil {
		// Unreachable: seeker has targets.
		w.log.WithError(err).Error("Cannot advance target")
		return
	}
	w.log.WithFields(logrus.Fields{
		"node":   seeker.ID,
		"anchor": anchor.ID,
		"next":   geometry.Format(next),
	}).Info("Target reached, moving to next")
}
