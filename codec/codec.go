// Package codec encrypts Temporal payloads so customer and payment data
// never reach the Temporal server in clear text.
package codec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
	"google.golang.org/protobuf/proto"
)

const (
	// MetadataEncodingEncrypted marks payloads produced by this codec
	MetadataEncodingEncrypted = "binary/encrypted"
	// MetadataEncryptionKeyID identifies the key a payload was sealed with
	MetadataEncryptionKeyID = "encryption-key-id"

	// KeySize is the required key length in bytes
	KeySize = chacha20poly1305.KeySize

	formatVersion byte = 1
)

// ErrKeyMismatch is returned when decoding a payload sealed under another key
var ErrKeyMismatch = errors.New("payload was encrypted with a different key")

// Codec implements converter.PayloadCodec with XChaCha20-Poly1305.
// Each payload is sealed as [version][nonce][ciphertext+tag].
type Codec struct {
	key   []byte
	keyID string
}

var _ converter.PayloadCodec = (*Codec)(nil)

// NewCodec returns a codec sealing payloads with the 32-byte key
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	sum := sha256.Sum256(key)
	return &Codec{
		key:   append([]byte(nil), key...),
		keyID: hex.EncodeToString(sum[:4]),
	}, nil
}

// NewEncryptionDataConverter wraps the default data converter with the codec
func NewEncryptionDataConverter(key []byte) (converter.DataConverter, error) {
	c, err := NewCodec(key)
	if err != nil {
		return nil, err
	}
	return converter.NewCodecDataConverter(converter.GetDefaultDataConverter(), c), nil
}

// KeyID returns the short fingerprint stored alongside encrypted payloads
func (c *Codec) KeyID() string { return c.keyID }

// Encode encrypts each payload into a binary/encrypted payload
func (c *Codec) Encode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	result := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		plaintext, err := proto.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}

		var nonce [chacha20poly1305.NonceSizeX]byte
		if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
			return nil, fmt.Errorf("generating random nonce: %w", err)
		}

		out := make([]byte, 1+len(nonce), 1+len(nonce)+len(plaintext)+aead.Overhead())
		out[0] = formatVersion
		copy(out[1:], nonce[:])
		out = aead.Seal(out, nonce[:], plaintext, []byte{formatVersion})

		result[i] = &commonpb.Payload{
			Metadata: map[string][]byte{
				converter.MetadataEncoding: []byte(MetadataEncodingEncrypted),
				MetadataEncryptionKeyID:    []byte(c.keyID),
			},
			Data: out,
		}
	}
	return result, nil
}

// Decode reverses Encode. Payloads not produced by the codec pass through.
func (c *Codec) Decode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	result := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		if string(p.GetMetadata()[converter.MetadataEncoding]) != MetadataEncodingEncrypted {
			result[i] = p
			continue
		}
		if id := string(p.GetMetadata()[MetadataEncryptionKeyID]); id != c.keyID {
			return nil, fmt.Errorf("%w: %s", ErrKeyMismatch, id)
		}

		data := p.GetData()
		if len(data) < 1+chacha20poly1305.NonceSizeX+aead.Overhead() {
			return nil, fmt.Errorf("encrypted payload is %d bytes, too short", len(data))
		}
		if data[0] != formatVersion {
			return nil, fmt.Errorf("encrypted payload version %d is not supported", data[0])
		}

		nonce := data[1 : 1+chacha20poly1305.NonceSizeX]
		plaintext, err := aead.Open(nil, nonce, data[1+chacha20poly1305.NonceSizeX:], data[:1])
		if err != nil {
			return nil, fmt.Errorf("decrypt payload: %w", err)
		}

		decoded := &commonpb.Payload{}
		if err := proto.Unmarshal(plaintext, decoded); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		result[i] = decoded
	}
	return result, nil
}

// KeyFromHex decodes a hex-encoded key
func KeyFromHex(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// LoadKey decodes hexKey, or generates a throwaway key when it is empty.
// A generated key cannot read payloads written by another process.
func LoadKey(hexKey string, logger *zap.Logger) ([]byte, error) {
	if hexKey != "" {
		return KeyFromHex(hexKey)
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate encryption key: %w", err)
	}
	logger.Warn("Using generated encryption key; set ENCRYPTION_KEY to share it between processes",
		zap.String("generated_key", hex.EncodeToString(key)))
	return key, nil
}
