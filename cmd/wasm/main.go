//go:build js && wasm
// +build js,wasm

package main

import (
	"fmt"
	"syscall/js"

	"BlockVault/internal/pkg/encryption"
)

func main() {
	fmt.Println("WASM Crypto Module Initialized")

	// Register all WASM functions
	encryption.RegisterWasmFunctions()

	// Export a ready flag to signal that WASM is ready
	js.Global().Set("WasmReady", js.ValueOf(true))

	// Keep the program running indefinitely
	<-make(chan struct{})
}
