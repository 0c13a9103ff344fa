package cold

import (
	"encoding/binary"
	"fmt"
)

// Record envelope layout (stable across restarts for the bbolt backend):
//
//	byte 0      format version (currently 1)
//	bytes 1..8  expiry deadline, big-endian UnixNano (0 = no TTL)
//	bytes 9..   codec payload
//
// The header is fixed-size so a sweep can read the deadline without
// touching the payload.

const (
	envelopeVersion = 1
	headerLen       = 1 + 8
)

// wrapRecord serializes a record into its on-store envelope.
func wrapRecord(rec Record) []byte {
	buf := make([]byte, headerLen+len(rec.Payload))
	buf[0] = envelopeVersion
	binary.BigEndian.PutUint64(buf[1:headerLen], uint64(rec.ExpiresAt))
	copy(buf[headerLen:], rec.Payload)
	return buf
}

// unwrapRecord parses an envelope. The returned payload aliases data;
// callers that outlive the source buffer must copy it.
func unwrapRecord(data []byte) (Record, error) {
	if len(data) < headerLen {
		return Record{}, fmt.Errorf("cold: record too short (%d bytes)", len(data))
	}
	if data[0] != envelopeVersion {
		return Record{}, fmt.Errorf("cold: unknown record version %d", data[0])
	}
	return Record{
		ExpiresAt: int64(binary.BigEndian.Uint64(data[1:headerLen])),
		Payload:   data[headerLen:],
	}, nil
}

// envelopeExpired checks the deadline straight from envelope bytes.
// Malformed envelopes report as expired so sweeps collect them.
func envelopeExpired(data []byte, now int64) bool {
	if len(data) < headerLen || data[0] != envelopeVersion {
		return true
	}
	exp := int64(binary.BigEndian.Uint64(data[1:headerLen]))
	return exp != 0 && now > exp
}
