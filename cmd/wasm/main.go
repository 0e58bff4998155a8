//go:build js && wasm

package main

import (
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/reefcraft/internal/adapter"
)

// One sampler per module instance, shared by every JS caller.
var shared = adapter.NewDefault()

// seed is called from JavaScript as reefcraftSeed(seed).
func seed(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return map[string]interface{}{"error": "seed must be a number"}
	}

	v := args[0].Float()
	if v < 0 || v > 4294967295 || v != float64(uint32(v)) {
		return map[string]interface{}{"error": fmt.Sprintf("seed %v is not an unsigned 32-bit integer", v)}
	}

	shared.Seed(uint32(v))
	return nil
}

// simValue is called from JavaScript as reefcraftSimValue(t).
func simValue(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return 0
	}
	return shared.SimValue(float32(args[0].Float()))
}

func main() {
	c := make(chan struct{})

	js.Global().Set("reefcraftSeed", js.FuncOf(seed))
	js.Global().Set("reefcraftSimValue", js.FuncOf(simValue))

	fmt.Println("reefcraft WASM module loaded")
	<-c
}
