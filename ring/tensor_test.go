//
// tensor_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package ring

import (
	"math/big"
	"testing"
)

type binTest struct {
	a, b int64
	r    int64
}

func scalarOf(bits int, v int64) *Tensor {
	return FromInt64(bits, v)
}

var addTests = []binTest{
	{1, 2, 3},
	{-1, 1, 0},
	{-5, -7, -12},
}

func TestAdd(t *testing.T) {
	for idx, test := range addTests {
		a := scalarOf(64, test.a)
		b := scalarOf(64, test.b)
		r, err := Add(a, b)
		if err != nil {
			t.Fatalf("add%d: %s", idx, err)
		}
		got := Signed(r.Data[0], 64).Int64()
		if got != test.r {
			t.Errorf("add%d: %v+%v=%v, expected %v", idx, test.a, test.b, got, test.r)
		}
	}
}

func TestSub(t *testing.T) {
	a := scalarOf(32, 10)
	b := scalarOf(32, 3)
	r, err := Sub(a, b)
	if err != nil {
		t.Fatalf("sub: %s", err)
	}
	if got := Signed(r.Data[0], 32).Int64(); got != 7 {
		t.Errorf("sub: got %v, expected 7", got)
	}
}

func TestMulWraps(t *testing.T) {
	a := scalarOf(8, 200)
	b := scalarOf(8, 2)
	r, err := Mul(a, b)
	if err != nil {
		t.Fatalf("mul: %s", err)
	}
	// 200*2 = 400 mod 256 = 144, which as a signed 8-bit value is -112.
	if got := Signed(r.Data[0], 8).Int64(); got != -112 {
		t.Errorf("mul: got %v, expected -112", got)
	}
}

func TestBroadcastScalar(t *testing.T) {
	scalar := scalarOf(64, 3)
	vec := New(64, []int{3})
	for i := range vec.Data {
		vec.Data[i] = big.NewInt(int64(i + 1))
	}
	r, err := Add(scalar, vec)
	if err != nil {
		t.Fatalf("add: %s", err)
	}
	want := []int64{4, 5, 6}
	for i, w := range want {
		if got := Signed(r.Data[i], 64).Int64(); got != w {
			t.Errorf("element %d: got %v, expected %v", i, got, w)
		}
	}
}

func TestShapeMismatch(t *testing.T) {
	x := New(64, []int{2})
	y := New(64, []int{3})
	if _, err := Add(x, y); err == nil {
		t.Errorf("expected shape mismatch error")
	}
}

func TestPrefixOrAndHighestOneBit(t *testing.T) {
	x := scalarOf(8, 0b00101000)
	po := PrefixOr(x, 8)
	if got := po.Data[0].Int64(); got != 0b00111111 {
		t.Errorf("prefix_or: got %b, expected %b", got, 0b00111111)
	}
	hob := HighestOneBit(x)
	if got := hob.Data[0].Int64(); got != 0b00100000 {
		t.Errorf("highest_one_bit: got %b, expected %b", got, 0b00100000)
	}
}

func TestPopcountAndBitParity(t *testing.T) {
	x := scalarOf(8, 0b01101101)
	if got := Popcount(x, 8).Data[0].Int64(); got != 5 {
		t.Errorf("popcount: got %v, expected 5", got)
	}
	if got := BitParity(x, 8).Data[0].Int64(); got != 1 {
		t.Errorf("bit_parity: got %v, expected 1", got)
	}
}

func TestBitRev(t *testing.T) {
	x := scalarOf(8, 0b00000110)
	r := BitRev(x, 0, 4)
	if got := r.Data[0].Int64(); got != 0b00000110 {
		t.Errorf("bitrev: got %b, expected %b", got, 0b00000110)
	}
	r = BitRev(x, 0, 8)
	if got := r.Data[0].Int64(); got != 0b01100000 {
		t.Errorf("bitrev: got %b, expected %b", got, 0b01100000)
	}
}

func TestArshNegative(t *testing.T) {
	x := scalarOf(8, -4)
	r := Arsh(x, 1)
	if got := Signed(r.Data[0], 8).Int64(); got != -2 {
		t.Errorf("arsh: got %v, expected -2", got)
	}
}

func TestBitDeintl(t *testing.T) {
	x := scalarOf(8, 0b11110101)
	r := BitDeintl(x)
	got := r.Data[0].Int64()
	lo := got & 0xf
	hi := (got >> 4) & 0xf
	if lo != 0b1111 {
		t.Errorf("bitdeintl low (even bits): got %b, expected %b", lo, 0b1111)
	}
	if hi != 0b1100 {
		t.Errorf("bitdeintl high (odd bits): got %b, expected %b", hi, 0b1100)
	}
}
