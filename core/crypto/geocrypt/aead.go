package geocrypt

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"

	"github.com/kochabx/eplq/errors"
)

var bufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

const maxPooledBuffer = 64 * 1024

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// errOpen hides why a ciphertext was rejected
var errOpen = errors.Plain("message authentication failed")

// seal marshals payload to JSON and encrypts it under a fresh IV.
// The returned ciphertext carries the tag at its end.
func (k *KeyManager) seal(op string, payload any) (ciphertext, iv []byte, err error) {
	aead, random, err := k.cipher(op)
	if err != nil {
		return nil, nil, err
	}

	buf := getBuffer()
	defer putBuffer(buf)
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return nil, nil, errors.Encryption(op, err)
	}

	iv = make([]byte, NonceSize)
	if _, err := io.ReadFull(random, iv); err != nil {
		return nil, nil, errors.Encryption(op, err)
	}

	plaintext := bytes.TrimRight(buf.Bytes(), "\n")
	return aead.Seal(nil, iv, plaintext, nil), iv, nil
}

// open authenticates and decrypts ciphertext into payload. Every failure
// yields the same error so callers learn nothing about the cause.
func (k *KeyManager) open(op string, kind errors.Kind, ciphertext, iv []byte, payload any) error {
	aead, _, err := k.cipher(op)
	if err != nil {
		return err
	}

	if len(iv) != NonceSize || len(ciphertext) < TagSize {
		return errors.E(op, kind, errOpen)
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return errors.E(op, kind, errOpen)
	}
	defer clear(plaintext)

	if err := json.Unmarshal(plaintext, payload); err != nil {
		return errors.E(op, kind, errOpen)
	}
	return nil
}
