package packetbuilder

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// CryptoPair is the narrow slice of a connection's 1-RTT crypto context
// that packet framing needs: seal the plaintext behind the finalised
// header as associated data, and reverse the process on receipt. Nonces
// are derived from the packet number the way the reference AEAD
// construction derives its nonce from a monotonic send counter, never
// carried on the wire.
type CryptoPair interface {
	EncryptPacket(header, payload []byte, packetNumber uint64) ([]byte, error)
	DecryptPacket(packet []byte, headerLen int, packetNumber uint64) ([]byte, error)
	KeyPhase() byte
}

// chachaCryptoPair is the default CryptoPair, a single ChaCha20-Poly1305
// AEAD keyed for one direction of one connection.
type chachaCryptoPair struct {
	aead     cipher.AEAD
	keyPhase byte
}

// NewChaChaCryptoPair builds a CryptoPair from a 32-byte key.
func NewChaChaCryptoPair(key []byte, keyPhase byte) (CryptoPair, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("packetbuilder: %w", err)
	}
	return &chachaCryptoPair{aead: aead, keyPhase: keyPhase}, nil
}

func (c *chachaCryptoPair) KeyPhase() byte { return c.keyPhase }

func (c *chachaCryptoPair) nonce(packetNumber uint64) [chacha20poly1305.NonceSize]byte {
	var n [chacha20poly1305.NonceSize]byte
	binary.LittleEndian.PutUint64(n[chacha20poly1305.NonceSize-8:], packetNumber)
	return n
}

// EncryptPacket seals payload with header as associated data and
// returns header||ciphertext, ready to flush as one datagram.
func (c *chachaCryptoPair) EncryptPacket(header, payload []byte, packetNumber uint64) ([]byte, error) {
	n := c.nonce(packetNumber)
	out := make([]byte, 0, len(header)+len(payload)+c.aead.Overhead())
	out = append(out, header...)
	out = c.aead.Seal(out, n[:], payload, header)
	return out, nil
}

// DecryptPacket opens the AEAD-protected tail of packet, treating the
// first headerLen bytes as associated data, and returns the plaintext
// payload.
func (c *chachaCryptoPair) DecryptPacket(packet []byte, headerLen int, packetNumber uint64) ([]byte, error) {
	if len(packet) < headerLen {
		return nil, fmt.Errorf("packetbuilder: packet shorter than header")
	}
	n := c.nonce(packetNumber)
	plain, err := c.aead.Open(nil, n[:], packet[headerLen:], packet[:headerLen])
	if err != nil {
		return nil, fmt.Errorf("packetbuilder: decrypt: %w", err)
	}
	return plain, nil
}
