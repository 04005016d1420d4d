//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Command halbench runs the concrete end-to-end accuracy scenarios
// and prints a report of approximation error against Go's math
// package, the way the teacher's timing-report tooling renders a
// protocol trace.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/markkurossi/tabulate"
	"github.com/markkurossi/text/superscript"

	"github.com/markkurossi/fxphal/config"
	"github.com/markkurossi/fxphal/engine/clear"
	"github.com/markkurossi/fxphal/fxp"
	"github.com/markkurossi/fxphal/hal"
	"github.com/markkurossi/fxphal/session"
	"github.com/markkurossi/fxphal/value"
)

type scenario struct {
	name   string
	inputs []float64
	want   func(in []float64) float64
	got    func(ctx *session.Context, in []value.Value) value.Value
}

func scalar(ctx *session.Context, r float64) value.Value {
	return fxp.Constant(ctx, r, nil)
}

var scenarios = []scenario{
	{"reciprocal", []float64{3.0}, func(in []float64) float64 { return 1 / in[0] },
		func(ctx *session.Context, in []value.Value) value.Value { return hal.Reciprocal(ctx, in[0]) }},
	{"div", []float64{22.0, 7.0}, func(in []float64) float64 { return in[0] / in[1] },
		func(ctx *session.Context, in []value.Value) value.Value { return hal.Div(ctx, in[0], in[1]) }},
	{"log", []float64{2.71828}, func(in []float64) float64 { return math.Log(in[0]) },
		func(ctx *session.Context, in []value.Value) value.Value { return hal.Log(ctx, in[0]) }},
	{"log2", []float64{8.0}, func(in []float64) float64 { return math.Log2(in[0]) },
		func(ctx *session.Context, in []value.Value) value.Value { return hal.Log2(ctx, in[0]) }},
	{"exp", []float64{1.5}, func(in []float64) float64 { return math.Exp(in[0]) },
		func(ctx *session.Context, in []value.Value) value.Value { return hal.Exp(ctx, in[0]) }},
	{"exp2", []float64{3.25}, func(in []float64) float64 { return math.Exp2(in[0]) },
		func(ctx *session.Context, in []value.Value) value.Value { return hal.Exp2(ctx, in[0]) }},
	{"sqrt", []float64{2.0}, func(in []float64) float64 { return math.Sqrt(in[0]) },
		func(ctx *session.Context, in []value.Value) value.Value { return hal.Sqrt(ctx, in[0]) }},
	{"rsqrt", []float64{2.0}, func(in []float64) float64 { return 1 / math.Sqrt(in[0]) },
		func(ctx *session.Context, in []value.Value) value.Value { return hal.Rsqrt(ctx, in[0]) }},
	{"tanh", []float64{0.75}, func(in []float64) float64 { return math.Tanh(in[0]) },
		func(ctx *session.Context, in []value.Value) value.Value { return hal.Tanh(ctx, in[0]) }},
	{"sigmoid", []float64{-1.25}, func(in []float64) float64 { return 1 / (1 + math.Exp(-in[0])) },
		func(ctx *session.Context, in []value.Value) value.Value { return hal.Logistic(ctx, in[0]) }},
}

func main() {
	fBits := flag.Int("f", config.Default().FxpFractionBits, "fractional bit width")
	fieldBits := flag.Int("k", 64, "ring field bit width")
	expMode := flag.String("exp-mode", "default", "exp approximation mode: default|taylor|pade")
	logMode := flag.String("log-mode", "default", "log approximation mode: default|pade|newton")
	sigMode := flag.String("sigmoid-mode", "default", "sigmoid approximation mode: default|mm1|seg3|real")
	flag.Parse()

	cfg := config.Default()
	cfg.FxpFractionBits = *fBits
	switch *fieldBits {
	case 32:
		cfg.Field = config.FM32
	case 64:
		cfg.Field = config.FM64
	case 128:
		cfg.Field = config.FM128
	default:
		fmt.Fprintf(os.Stderr, "halbench: unsupported field width %d\n", *fieldBits)
		os.Exit(1)
	}
	switch *expMode {
	case "default":
		cfg.FxpExpMode = config.EXPDefault
	case "taylor":
		cfg.FxpExpMode = config.EXPTaylor
	case "pade":
		cfg.FxpExpMode = config.EXPPade
	default:
		fmt.Fprintf(os.Stderr, "halbench: unknown exp mode %q\n", *expMode)
		os.Exit(1)
	}
	switch *logMode {
	case "default":
		cfg.FxpLogMode = config.LOGDefault
	case "pade":
		cfg.FxpLogMode = config.LOGPade
	case "newton":
		cfg.FxpLogMode = config.LOGNewton
	default:
		fmt.Fprintf(os.Stderr, "halbench: unknown log mode %q\n", *logMode)
		os.Exit(1)
	}
	switch *sigMode {
	case "default":
		cfg.SigmoidMode = config.SigmoidDefault
	case "mm1":
		cfg.SigmoidMode = config.SigmoidMM1
	case "seg3":
		cfg.SigmoidMode = config.SigmoidSeg3
	case "real":
		cfg.SigmoidMode = config.SigmoidReal
	default:
		fmt.Fprintf(os.Stderr, "halbench: unknown sigmoid mode %q\n", *sigMode)
		os.Exit(1)
	}

	engine := clear.New(cfg.Field.BitWidth())
	ctx, err := session.New(cfg, engine, 0, "halbench")
	if err != nil {
		fmt.Fprintf(os.Stderr, "halbench: %s\n", err)
		os.Exit(1)
	}

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Op").SetAlign(tabulate.ML)
	tab.Header("Input").SetAlign(tabulate.MR)
	tab.Header("Want").SetAlign(tabulate.MR)
	tab.Header("Got").SetAlign(tabulate.MR)
	tab.Header("Abs err").SetAlign(tabulate.MR)

	for _, s := range scenarios {
		inputs := make([]value.Value, len(s.inputs))
		for i, r := range s.inputs {
			inputs[i] = scalar(ctx, r)
		}
		got := s.got(ctx, inputs)
		gotF := fxp.Decode(got.Share.Data.Data[0], ctx.FxpBits(), ctx.FieldBits())
		want := s.want(s.inputs)

		row := tab.Row()
		row.Column(s.name)
		row.Column(fmt.Sprintf("%v", s.inputs))
		row.Column(fmt.Sprintf("%.6f", want))
		row.Column(fmt.Sprintf("%.6f", gotF))
		row.Column(fmt.Sprintf("%.2e", math.Abs(want-gotF)))
	}
	fmt.Printf("fxp scale 2⁻%s, field=%d bits\n\n",
		superscript.Itoa(cfg.FxpFractionBits), cfg.Field.BitWidth())
	tab.Print(os.Stdout)
}
