package main

import (
	"flag"
	"fmt"
	"strconv"
)

// flagSet wraps flag.FlagSet with custom flag.Value-backed definitions for
// uint64 values (slot times) and float32 values (rates).
type flagSet struct {
	*flag.FlagSet
}

// newCustomFlagSet creates a flagSet with ContinueOnError behavior.
func newCustomFlagSet(name string) *flagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &flagSet{FlagSet: fs}
}

// Uint64Var defines a uint64 flag via a custom flag.Value implementation.
func (fs *flagSet) Uint64Var(p *uint64, name string, value uint64, usage string) {
	fs.FlagSet.Var(&uint64Value{p: p}, name, usage)
	*p = value
}

// Float32Var defines a float32 flag, used for --failure-rate.
func (fs *flagSet) Float32Var(p *float32, name string, value float32, usage string) {
	fs.FlagSet.Var(&float32Value{p: p}, name, usage)
	*p = value
}

type uint64Value struct {
	p *uint64
}

func (v *uint64Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(*v.p, 10)
}

func (v *uint64Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid uint64 value %q", s)
	}
	*v.p = n
	return nil
}

type float32Value struct {
	p *float32
}

func (v *float32Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatFloat(float64(*v.p), 'g', -1, 32)
}

func (v *float32Value) Set(s string) error {
	n, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return fmt.Errorf("invalid float32 value %q", s)
	}
	*v.p = float32(n)
	return nil
}
