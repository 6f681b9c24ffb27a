package packetbuilder

import (
	"encoding/binary"
	"fmt"
)

// Builder frames one connection's outbound short-header and repair
// packets over a caller-supplied peer connection ID, encrypting each
// with a CryptoPair and handing back ready-to-send datagrams. It tracks
// just enough state to satisfy fec.Builder: the plaintext payload and
// packet number of the last short-header packet it finalised.
type Builder struct {
	peerCID []byte
	crypto  CryptoPair
	spin    bool

	packetNumber uint64 // next data packet number to assign

	lastPayload []byte
	lastPN      uint64

	datagrams [][]byte
}

// New builds a packet builder for a connection identified by peerCID,
// starting the data packet-number counter at firstPacketNumber.
func New(peerCID []byte, crypto CryptoPair, firstPacketNumber uint64) *Builder {
	return &Builder{
		peerCID:      append([]byte(nil), peerCID...),
		crypto:       crypto,
		packetNumber: firstPacketNumber,
	}
}

// Datagrams drains and returns every datagram framed since the last
// call.
func (b *Builder) Datagrams() [][]byte {
	out := b.datagrams
	b.datagrams = nil
	return out
}

func (b *Builder) header(packetType byte, nss, repairKey byte) []byte {
	flags := packetType
	if b.spin {
		flags |= 1 << spinBitShift
	}
	flags |= b.crypto.KeyPhase() << keyPhaseShift
	flags |= 1 // pn_len-1 == 1, i.e. a 2-byte packet number

	h := make([]byte, HeaderSize(len(b.peerCID)))
	h[0] = flags
	copy(h[1:], b.peerCID)
	off := 1 + len(b.peerCID)
	h[off] = nss
	h[off+1] = repairKey
	return h
}

// BuildDataPacket frames and encrypts a short-header data packet
// carrying payload, advances the data packet-number counter, and
// records the plaintext so CurrentShortHeaderPacketPayload/
// CurrentShortHeaderPacketNum can report it to the FEC encoder.
func (b *Builder) BuildDataPacket(payload []byte) ([]byte, error) {
	pn := b.packetNumber
	header := b.header(PacketTypeOneRTT, 0, 0)
	off := 1 + len(b.peerCID) + 2
	binary.BigEndian.PutUint16(header[off:], uint16(pn))

	datagram, err := b.crypto.EncryptPacket(header, payload, pn)
	if err != nil {
		return nil, fmt.Errorf("packetbuilder: build data packet: %w", err)
	}

	b.packetNumber++
	b.lastPayload = append([]byte(nil), payload...)
	b.lastPN = pn
	b.datagrams = append(b.datagrams, datagram)
	return datagram, nil
}

// BuildRepairPacket frames and encrypts a repair packet per the
// repair-packet wire format: the packet number field carries fss_esi
// directly and the data packet-number counter is not advanced, since a
// repair symbol reuses fss_esi rather than consuming a fresh number.
// The repair datagram is never coalesced with anything else.
func (b *Builder) BuildRepairPacket(fssESI uint64, nss, repairKey byte, payload []byte) error {
	b.lastPayload = nil

	header := b.header(PacketTypeRepair, nss, repairKey)
	off := 1 + len(b.peerCID) + 2
	binary.BigEndian.PutUint16(header[off:], uint16(fssESI))

	datagram, err := b.crypto.EncryptPacket(header, payload, fssESI)
	if err != nil {
		return fmt.Errorf("packetbuilder: build repair packet: %w", err)
	}
	b.datagrams = append(b.datagrams, datagram)
	return nil
}

// CurrentShortHeaderPacketPayload satisfies fec.Builder: the plaintext
// payload of the most recently finalised short-header data packet, or
// nil if the last build was a repair packet.
func (b *Builder) CurrentShortHeaderPacketPayload() []byte {
	return b.lastPayload
}

// CurrentShortHeaderPacketNum satisfies fec.Builder.
func (b *Builder) CurrentShortHeaderPacketNum() uint64 {
	return b.lastPN
}

// ClearCurrentShortHeaderPacket drops the recorded payload so a
// subsequent repair packet (which records nothing of its own) does not
// appear to the encoder as a repeat of the last source payload.
func (b *Builder) ClearCurrentShortHeaderPacket() {
	b.lastPayload = nil
}

// ParsedPacket is one decrypted inbound datagram, demultiplexed into
// either a source or a repair symbol's worth of fields.
type ParsedPacket struct {
	Repair bool

	// Valid when Repair is false.
	PacketNumber uint64
	// Valid when Repair is true.
	FSSESI    uint64
	NSS       byte
	RepairKey byte

	Payload []byte
}

// ParsePacket decodes and decrypts one inbound datagram built per
// §6.1. peerCIDLen must equal the length this connection uses for its
// own connection ID, since the sender framed the packet against that
// length.
func ParsePacket(datagram []byte, peerCIDLen int, crypto CryptoPair) (ParsedPacket, error) {
	headerLen := HeaderSize(peerCIDLen)
	if len(datagram) < headerLen {
		return ParsedPacket{}, fmt.Errorf("packetbuilder: datagram shorter than header")
	}

	flags := datagram[0]
	if IsLongHeader(flags) {
		return ParsedPacket{}, fmt.Errorf("packetbuilder: unexpected long header")
	}

	off := 1 + peerCIDLen
	nss := datagram[off]
	repairKey := datagram[off+1]
	pn := uint64(binary.BigEndian.Uint16(datagram[off+2:]))

	payload, err := crypto.DecryptPacket(datagram, headerLen, pn)
	if err != nil {
		return ParsedPacket{}, err
	}

	if IsRepairHeader(flags) {
		return ParsedPacket{Repair: true, FSSESI: pn, NSS: nss, RepairKey: repairKey, Payload: payload}, nil
	}
	return ParsedPacket{Repair: false, PacketNumber: pn, Payload: payload}, nil
}
