//go:build js && wasm
// +build js,wasm

package encryption

import (
	"crypto/rand"
	"encoding/hex"
	"syscall/js"

	"BlockVault/internal/pkg/encryption/modes"
	"BlockVault/internal/pkg/encryption/padding"
)

func bytesToHex(b []byte) string          { return hex.EncodeToString(b) }
func hexToBytes(s string) ([]byte, error) { return hex.DecodeString(s) }

func wasmError(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

// encryptorFromArgs builds the facade from the string arguments every
// binding receives: algorithm, keyHex, mode, padding
func encryptorFromArgs(alg, keyHex, modeName, paddingName string) (*Encryptor, error) {
	key, err := hexToBytes(keyHex)
	if err != nil {
		return nil, err
	}
	cipher, err := NewCipher(alg, key)
	if err != nil {
		return nil, err
	}
	mode, err := modes.ParseMode(modeName)
	if err != nil {
		return nil, err
	}
	var padder padding.Padder
	if paddingName != "" {
		padder, err = padding.ParsePadding(paddingName)
		if err != nil {
			return nil, err
		}
	}
	return NewEncryptor(cipher, mode, padder)
}

func registerWasm() {
	// WasmCrypto.Encrypt(algorithm, keyHex, mode, padding, plaintextHex) -> {ciphertext, iv}
	encrypt := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 5 {
			return wasmError("insufficient args")
		}
		enc, err := encryptorFromArgs(args[0].String(), args[1].String(), args[2].String(), args[3].String())
		if err != nil {
			return wasmError(err.Error())
		}
		pt, err := hexToBytes(args[4].String())
		if err != nil {
			return wasmError("invalid plaintext hex")
		}

		mode, _ := modes.ParseMode(args[2].String())
		var iv []byte
		if mode.RequiresIV() {
			iv = make([]byte, enc.BlockSize())
			if _, err := rand.Read(iv); err != nil {
				return wasmError(err.Error())
			}
		}

		ct, err := enc.Encrypt(pt, iv)
		if err != nil {
			return wasmError(err.Error())
		}
		return js.ValueOf(map[string]interface{}{
			"ciphertext": bytesToHex(ct),
			"iv":         bytesToHex(iv),
		})
	})

	// WasmCrypto.Decrypt(algorithm, keyHex, mode, padding, ciphertextHex, ivHex) -> {plaintext}
	decrypt := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 6 {
			return wasmError("insufficient args")
		}
		enc, err := encryptorFromArgs(args[0].String(), args[1].String(), args[2].String(), args[3].String())
		if err != nil {
			return wasmError(err.Error())
		}
		ct, err := hexToBytes(args[4].String())
		if err != nil {
			return wasmError("invalid ciphertext hex")
		}
		var iv []byte
		if ivHex := args[5].String(); ivHex != "" {
			iv, err = hexToBytes(ivHex)
			if err != nil {
				return wasmError("invalid iv hex")
			}
		}

		pt, err := enc.Decrypt(ct, iv)
		if err != nil {
			return wasmError(err.Error())
		}
		return js.ValueOf(map[string]interface{}{
			"plaintext": bytesToHex(pt),
		})
	})

	// WasmCrypto.GenerateKey(algorithm) -> {key}
	generateKey := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return wasmError("insufficient args")
		}
		size, err := KeySizeFor(args[0].String())
		if err != nil {
			return wasmError(err.Error())
		}
		key := make([]byte, size)
		if _, err := rand.Read(key); err != nil {
			return wasmError(err.Error())
		}
		return js.ValueOf(map[string]interface{}{
			"key": bytesToHex(key),
		})
	})

	wasmCrypto := js.Global().Get("Object").New()
	wasmCrypto.Set("Encrypt", encrypt)
	wasmCrypto.Set("Decrypt", decrypt)
	wasmCrypto.Set("GenerateKey", generateKey)
	js.Global().Set("WasmCrypto", wasmCrypto)
}

// RegisterWasmFunctions exposes the crypto API to JavaScript
func RegisterWasmFunctions() {
	registerWasm()
}
