// Package packetbuilder frames short-header data packets and the FEC
// repair packets that share their layout, the way a QUIC connection's
// packet builder frames both from one buffer. A repair packet is
// byte-compatible with a short-header data packet except that the two
// bytes the short header always skips past carry nss and repair_key,
// which keeps both headers the same size so a repair payload always
// fits in exactly one UDP datagram.
package packetbuilder

// Packet-type tag occupies bits 6 and 4 of the first header byte, clear
// of the spin bit (bit 5), key phase (bit 2), and packet-number-length
// field (bits 0-1) that share the byte.
const (
	PacketTypeOneRTT  byte = 0x40
	PacketTypeRepair  byte = 0x50
	packetTypeMask    byte = 0x50
	spinBitShift           = 5
	keyPhaseShift          = 2
	pnLenBits              = 0x03
)

// IsLongHeader reports whether the packet-type byte belongs to a
// long-header packet. This module never builds long headers itself but
// exposes the check for completeness with is_repair_header, since a
// caller demultiplexing inbound datagrams needs both.
func IsLongHeader(flags byte) bool {
	return flags&0x80 != 0
}

// IsRepairHeader reports whether the packet-type byte identifies a
// repair packet rather than a short-header data packet.
func IsRepairHeader(flags byte) bool {
	return !IsLongHeader(flags) && flags&packetTypeMask == PacketTypeRepair
}

// HeaderSize returns the common short-header/repair-header size for a
// peer connection ID of the given length: 3 fixed bytes (flags, nss,
// repair_key) plus a 2-byte packet number, plus the CID itself.
func HeaderSize(peerCIDLen int) int {
	return 3 + 2 + peerCIDLen
}
