// Package evaluator implements PolicyEvaluator (spec.md §4.2): deterministic
// bootstrap-sample generation, simulator-backed policy evaluation with
// agent-isolated event filtering, and paired-sample delta computation for
// the optimization loop's acceptance rule.
package evaluator

import (
	"crypto/sha256"
	"encoding/binary"
)

// DeriveSeed computes H(master_seed, iteration, agent_id[, sample_index])
// as a SHA-256 digest truncated to 64 bits (spec.md §4.2). Omitting
// sampleIndex (pass -1) derives the single seed used by the deterministic
// evaluation modes; a non-negative sampleIndex derives one of num_samples
// bootstrap seeds. The same inputs always yield the same output.
func DeriveSeed(masterSeed uint64, iteration int, agentID string, sampleIndex int) uint64 {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], masterSeed)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(int64(iteration)))
	h.Write(buf[:])
	h.Write([]byte(agentID))
	if sampleIndex >= 0 {
		binary.BigEndian.PutUint64(buf[:], uint64(int64(sampleIndex)))
		h.Write(buf[:])
	}
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}
