//
// context.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package session implements the L5 evaluation context: the runtime
// configuration, the share-engine handle, party identity, and fork
// semantics for intra-op parallelism (spec.md §4.5).
package session

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"

	"github.com/markkurossi/fxphal/config"
	"github.com/markkurossi/fxphal/share"
)

// Context is the HAL evaluation context for all operators. It is
// created at session start, forked lazily for sub-tasks, and
// destroyed at end of session. Config and Engine are shared read-only
// across forked contexts; the PRNG stream is per-context.
type Context struct {
	cfg    *config.Runtime
	engine share.Engine

	id   int
	name string

	seed    [32]byte
	counter uint64
	prng    *chacha20.Cipher
}

// New creates a root context for party id/name, validating cfg
// (spec.md §7, "Configuration invalid").
func New(cfg *config.Runtime, engine share.Engine, id int, name string) (
	*Context, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if engine.FieldBits() != cfg.Field.BitWidth() {
		return nil, fmt.Errorf(
			"%w: engine field width %d does not match config field %v",
			config.ErrInvalidConfig, engine.FieldBits(), cfg.Field)
	}

	ctx := &Context{
		cfg:    cfg,
		engine: engine,
		id:     id,
		name:   name,
	}
	if _, err := io.ReadFull(rand.Reader, ctx.seed[:]); err != nil {
		return nil, fmt.Errorf("session: failed to seed PRNG: %w", err)
	}
	ctx.prng = newStream(ctx.seed, 0)
	return ctx, nil
}

func newStream(seed [32]byte, counter uint64) *chacha20.Cipher {
	var nonce [12]byte
	// The low 8 bytes of the nonce carry the fork counter, so forked
	// sub-contexts provably draw from disjoint keystreams even though
	// they share the same root seed (spec.md §5: "will not collide on
	// correlated-randomness counters").
	for i := 0; i < 8; i++ {
		nonce[i] = byte(counter >> (8 * i))
	}
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		// Only fails on malformed key/nonce lengths, which are fixed
		// above.
		panic(err)
	}
	return c
}

// Config returns the immutable runtime configuration.
func (c *Context) Config() *config.Runtime {
	return c.cfg
}

// Engine returns the share-engine handle.
func (c *Context) Engine() share.Engine {
	return c.engine
}

// PartyID returns the party's numeric identity (HalContext::pid() in
// the original).
func (c *Context) PartyID() int {
	return c.id
}

// PartyName returns the party's human-readable identity
// (HalContext::id() in the original).
func (c *Context) PartyName() string {
	return c.name
}

// FxpBits returns the configured fractional-bit parameter f.
func (c *Context) FxpBits() int {
	return c.cfg.FxpFractionBits
}

// FieldBits returns the configured ring bit width k.
func (c *Context) FieldBits() int {
	return c.cfg.Field.BitWidth()
}

// NextRandom draws n pseudo-random bytes from the context's
// correlated-randomness stream.
func (c *Context) NextRandom(n int) []byte {
	out := make([]byte, n)
	c.prng.XORKeyStream(out, out)
	return out
}

// Fork produces an independent child context that shares immutable
// configuration and the engine's own Fork() result, but owns fresh
// sequence numbers / PRNG streams. Two sub-contexts used in parallel
// will not collide on correlated-randomness counters and will produce
// identical final results to a sequential execution (spec.md §4.5).
func (c *Context) Fork() *Context {
	c.counter++
	child := &Context{
		cfg:     c.cfg,
		engine:  c.engine.Fork(),
		id:      c.id,
		name:    c.name,
		seed:    c.seed,
		counter: c.counter,
	}
	child.prng = newStream(c.seed, c.counter)
	return child
}
