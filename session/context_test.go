//
// context_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package session

import (
	"bytes"
	"testing"

	"github.com/markkurossi/fxphal/config"
	"github.com/markkurossi/fxphal/engine/clear"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.FxpFractionBits = 0
	if _, err := New(cfg, clear.New(64), 0, "p0"); err == nil {
		t.Errorf("expected error for invalid config")
	}
}

func TestNewRejectsFieldMismatch(t *testing.T) {
	cfg := config.Default()
	cfg.Field = config.FM32
	if _, err := New(cfg, clear.New(64), 0, "p0"); err == nil {
		t.Errorf("expected error for field/engine bit width mismatch")
	}
}

func TestAccessors(t *testing.T) {
	cfg := config.Default()
	ctx, err := New(cfg, clear.New(cfg.Field.BitWidth()), 2, "alice")
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	if got := ctx.PartyID(); got != 2 {
		t.Errorf("PartyID: got %v, expected 2", got)
	}
	if got := ctx.PartyName(); got != "alice" {
		t.Errorf("PartyName: got %v, expected alice", got)
	}
	if got := ctx.FxpBits(); got != cfg.FxpFractionBits {
		t.Errorf("FxpBits: got %v, expected %v", got, cfg.FxpFractionBits)
	}
	if got := ctx.FieldBits(); got != 64 {
		t.Errorf("FieldBits: got %v, expected 64", got)
	}
}

func TestForkProducesDisjointStreams(t *testing.T) {
	cfg := config.Default()
	ctx, err := New(cfg, clear.New(cfg.Field.BitWidth()), 0, "p0")
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	a := ctx.Fork()
	b := ctx.Fork()

	ra := a.NextRandom(32)
	rb := b.NextRandom(32)
	if bytes.Equal(ra, rb) {
		t.Errorf("forked contexts produced identical keystreams")
	}
}

func TestNextRandomAdvancesStream(t *testing.T) {
	cfg := config.Default()
	ctx, err := New(cfg, clear.New(cfg.Field.BitWidth()), 0, "p0")
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	first := ctx.NextRandom(16)
	second := ctx.NextRandom(16)
	if bytes.Equal(first, second) {
		t.Errorf("successive draws from the same stream should differ")
	}
}
