// =============================================================================
// 文件: internal/wire/wire.go
// 描述: fragment header + ack packet codec, network byte order throughout
// =============================================================================
package wire

import (
	"encoding/binary"
	"fmt"
)

// FlushFrame marks a fragment as belonging to a high-priority (flush)
// frame in the header's flags byte.
const FlushFrame uint8 = 0x01

// FragmentHeaderSize is the on-wire size of a data fragment header:
// frame_number(4) + frame_flags(1) + fragment_number(1) + fragments_per_frame(1).
const FragmentHeaderSize = 4 + 1 + 1 + 1

// AckPacketSize is the fixed on-wire size of an ack packet:
// frame_number(2) + high_packets_ack(8) + low_packets_ack(8).
const AckPacketSize = 2 + 8 + 8

// FragmentHeader is the fixed-layout header prefixed to every fragment
// datagram the sender transmits.
type FragmentHeader struct {
	FrameNumber       uint32
	FrameFlags        uint8
	FragmentNumber    uint8
	FragmentsPerFrame uint8
}

// EncodeFragment builds header+payload ready to hand to the transport.
func EncodeFragment(h FragmentHeader, payload []byte) []byte {
	buf := make([]byte, FragmentHeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], h.FrameNumber)
	buf[4] = h.FrameFlags
	buf[5] = h.FragmentNumber
	buf[6] = h.FragmentsPerFrame
	copy(buf[FragmentHeaderSize:], payload)
	return buf
}

// DecodeFragment splits a raw datagram into its header and payload.
func DecodeFragment(data []byte) (FragmentHeader, []byte, error) {
	if len(data) < FragmentHeaderSize {
		return FragmentHeader{}, nil, fmt.Errorf("wire: fragment too short: %d < %d", len(data), FragmentHeaderSize)
	}
	h := FragmentHeader{
		FrameNumber:       binary.BigEndian.Uint32(data[0:4]),
		FrameFlags:        data[4],
		FragmentNumber:    data[5],
		FragmentsPerFrame: data[6],
	}
	return h, data[FragmentHeaderSize:], nil
}

// AckPacket is the fixed-layout packet the receiver sends back to
// acknowledge fragments of the current frame. FrameNumber is truncated
// to 16 bits on the wire; the core must compare against its 32-bit
// frame number modulo 1<<16 (see TruncatedFrameNumber).
type AckPacket struct {
	FrameNumber    uint16
	HighPacketsAck uint64
	LowPacketsAck  uint64
}

// Encode serialises an ack packet in network byte order.
func (p AckPacket) Encode() []byte {
	buf := make([]byte, AckPacketSize)
	binary.BigEndian.PutUint16(buf[0:2], p.FrameNumber)
	binary.BigEndian.PutUint64(buf[2:10], p.HighPacketsAck)
	binary.BigEndian.PutUint64(buf[10:18], p.LowPacketsAck)
	return buf
}

// DecodeAck parses a fixed-size ack packet. A size mismatch is the
// "short read" case §4.5 asks callers to log and discard.
func DecodeAck(data []byte) (AckPacket, error) {
	if len(data) != AckPacketSize {
		return AckPacket{}, fmt.Errorf("wire: ack size mismatch: %d != %d", len(data), AckPacketSize)
	}
	return AckPacket{
		FrameNumber:    binary.BigEndian.Uint16(data[0:2]),
		HighPacketsAck: binary.BigEndian.Uint64(data[2:10]),
		LowPacketsAck:  binary.BigEndian.Uint64(data[10:18]),
	}, nil
}

// TruncatedFrameNumber projects a core 32-bit frame number onto the
// wire's 16-bit ack frame number space.
func TruncatedFrameNumber(frameNumber uint32) uint16 {
	return uint16(frameNumber & 0xFFFF)
}
