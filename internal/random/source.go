// Package random derives bounded pseudo-random draws from recorded entropy.
//
// # Determinism
//
// A Stream is a pure function of the server secret and a Seed. Given the
// same secret and the same Seed (including Extra, in order) a Stream yields
// the same sequence of values, so every outcome can be replayed after the
// fact from the recorded Seed.
//
// # Trust model
//
// Seeds combine the subject id, the caller, a monotonically increasing nonce
// and the wall clock at call time. All of those are guessable; the keyed hash
// is what makes the stream unpredictable, so outcomes are only as private as
// the configured secret.
package random

import (
	"encoding/binary"
	"math"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/crypto/blake2b"

	"duel-arena/internal/model"
)

// BpsScale is the denominator of every basis-point probability.
const BpsScale = 10000

// Domains keep the streams of different operations apart.
const (
	DomainMint  = "mint"
	DomainForge = "forge"
	DomainDuel  = "duel"
)

// Seed is the tuple a Stream is derived from.
type Seed struct {
	Domain  string
	Subject int64 // mint, forge or duel id
	Caller  int64
	Nonce   uint64
	Entropy int64 // unix nanoseconds observed by the call
	Extra   []int64
}

// Record returns the part of the seed that is not implied by the subject.
func (s Seed) Record() model.SeedRecord {
	return model.SeedRecord{Nonce: s.Nonce, Entropy: s.Entropy}
}

// Source hands out seeds and derives streams from them.
// It is safe for concurrent use.
type Source struct {
	key   [32]byte
	nonce *atomic.Uint64
	now   func() time.Time
}

// NewSource creates a Source keyed by secret. start is the last nonce already
// used, so a restarted process can continue the sequence.
func NewSource(secret string, start uint64) *Source {
	return &Source{
		key:   blake2b.Sum256([]byte(secret)),
		nonce: atomic.NewUint64(start),
		now:   time.Now,
	}
}

// SetClock replaces the wall clock used for seed entropy.
func (s *Source) SetClock(now func() time.Time) {
	s.now = now
}

// Nonce returns the last nonce handed out.
func (s *Source) Nonce() uint64 {
	return s.nonce.Load()
}

// Next allocates a fresh nonce and captures the current entropy.
func (s *Source) Next(domain string, subject, caller int64, extra ...int64) Seed {
	return Seed{
		Domain:  domain,
		Subject: subject,
		Caller:  caller,
		Nonce:   s.nonce.Inc(),
		Entropy: s.now().UnixNano(),
		Extra:   extra,
	}
}

// Replay rebuilds a seed from a recorded SeedRecord.
func Replay(domain string, subject, caller int64, rec model.SeedRecord, extra ...int64) Seed {
	return Seed{
		Domain:  domain,
		Subject: subject,
		Caller:  caller,
		Nonce:   rec.Nonce,
		Entropy: rec.Entropy,
		Extra:   extra,
	}
}

// Stream derives the stream for seed.
func (s *Source) Stream(seed Seed) *Stream {
	h := newKeyed(s.key[:])
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(len(seed.Domain)))
	h.Write(b[:])
	h.Write([]byte(seed.Domain))
	for _, v := range []uint64{uint64(seed.Subject), uint64(seed.Caller), seed.Nonce, uint64(seed.Entropy), uint64(len(seed.Extra))} {
		binary.LittleEndian.PutUint64(b[:], v)
		h.Write(b[:])
	}
	for _, v := range seed.Extra {
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		h.Write(b[:])
	}

	st := &Stream{off: blockSize}
	copy(st.key[:], h.Sum(nil))
	return st
}

const blockSize = 32

// Stream is a deterministic sequence of uniform 64-bit values.
// A Stream is not safe for concurrent use.
type Stream struct {
	key     [32]byte
	counter uint64
	buf     [blockSize]byte
	off     int
}

func (st *Stream) refill() {
	h := newKeyed(st.key[:])
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], st.counter)
	h.Write(b[:])
	copy(st.buf[:], h.Sum(nil))
	st.counter++
	st.off = 0
}

// Uint64 returns the next value of the stream.
func (st *Stream) Uint64() uint64 {
	if st.off+8 > blockSize {
		st.refill()
	}
	v := binary.LittleEndian.Uint64(st.buf[st.off:])
	st.off += 8
	return v
}

// Intn returns a uniform value in [0, n). It returns 0 when n <= 0.
func (st *Stream) Intn(n int64) int64 {
	if n <= 1 {
		return 0
	}
	un := uint64(n)
	// Reject the tail that would bias the modulo.
	rem := (math.MaxUint64%un + 1) % un
	limit := uint64(math.MaxUint64) - rem
	for {
		v := st.Uint64()
		if v <= limit {
			return int64(v % un)
		}
	}
}

// Range returns a uniform value in [lo, hi].
func (st *Stream) Range(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + st.Intn(hi-lo+1)
}

// Bps returns a uniform value in [0, BpsScale).
func (st *Stream) Bps() int64 {
	return st.Intn(BpsScale)
}

// Weighted picks an index with probability proportional to its weight.
// Non-positive weights are never picked; it returns -1 if none is positive.
func (st *Stream) Weighted(weights []int64) int {
	var total int64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return -1
	}
	r := st.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}

// Sub derives an independent stream for one decision, e.g. "rarity" or
// "combat". Sub streams do not depend on how much of st was consumed.
func (st *Stream) Sub(label string) *Stream {
	h := newKeyed(st.key[:])
	h.Write([]byte("sub:"))
	h.Write([]byte(label))
	sub := &Stream{off: blockSize}
	copy(sub.key[:], h.Sum(nil))
	return sub
}

type keyedHash interface {
	Write(p []byte) (int, error)
	Sum(b []byte) []byte
}

func newKeyed(key []byte) keyedHash {
	h, err := blake2b.New256(key)
	if err != nil {
		// Keys are always 32 bytes, well under the 64 byte limit.
		panic(err)
	}
	return h
}
