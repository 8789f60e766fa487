// Package wire implements the binary pinger message format carried over
// UDP. Every frame is:
//
//	byte 0-1  magic "PG"
//	byte 2    format version (currently 1)
//	byte 3    message type
//	...       type-specific payload (big-endian)
//	last 2    CRC-16/0x1021 over everything before it, big-endian
//
// An observation report payload is a length-prefixed pinger ID, a
// length-prefixed frame ID, an int64 Unix-nanosecond timestamp, and the
// range/bearing/elevation float64 triple. A position-set payload is a
// length-prefixed pinger ID followed by the x/y/z float64 triple.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/pinger-simulator/model"
)

const (
	magic0 = 'P'
	magic1 = 'G'

	// Version is the wire format version emitted by this build.
	Version = 1

	// TypeObservation is an outbound range/bearing/elevation report.
	TypeObservation = 0x01
	// TypePositionSet is an inbound beacon position update.
	TypePositionSet = 0x02

	headerLen  = 4
	trailerLen = 2

	maxIDLen = 255
)

// PositionSet is the decoded form of an inbound beacon move request.
type PositionSet struct {
	PingerID string
	X, Y, Z  float64
}

// EncodeObservation serialises an observation into a framed message.
func EncodeObservation(obs model.Observation) ([]byte, error) {
	if err := checkID("pinger id", obs.PingerID); err != nil {
		return nil, err
	}
	if err := checkID("frame id", obs.FrameID); err != nil {
		return nil, err
	}

	buf := appendHeader(make([]byte, 0, headerLen+2+len(obs.PingerID)+len(obs.FrameID)+8+24+trailerLen), TypeObservation)
	buf = appendString(buf, obs.PingerID)
	buf = appendString(buf, obs.FrameID)
	buf = binary.BigEndian.AppendUint64(buf, uint64(obs.Time.UnixNano()))
	buf = appendFloat(buf, obs.Range)
	buf = appendFloat(buf, obs.Bearing)
	buf = appendFloat(buf, obs.Elevation)
	return appendTrailer(buf), nil
}

// EncodePositionSet serialises a beacon move request into a framed
// message.
func EncodePositionSet(ps PositionSet) ([]byte, error) {
	if err := checkID("pinger id", ps.PingerID); err != nil {
		return nil, err
	}

	buf := appendHeader(make([]byte, 0, headerLen+1+len(ps.PingerID)+24+trailerLen), TypePositionSet)
	buf = appendString(buf, ps.PingerID)
	buf = appendFloat(buf, ps.X)
	buf = appendFloat(buf, ps.Y)
	buf = appendFloat(buf, ps.Z)
	return appendTrailer(buf), nil
}

// MessageType validates the frame envelope (magic, version, CRC) and
// returns the message type byte.
func MessageType(frame []byte) (byte, error) {
	if len(frame) < headerLen+trailerLen {
		return 0, fmt.Errorf("wire: frame too short (%d bytes)", len(frame))
	}
	if frame[0] != magic0 || frame[1] != magic1 {
		return 0, fmt.Errorf("wire: bad magic %#x %#x", frame[0], frame[1])
	}
	if frame[2] != Version {
		return 0, fmt.Errorf("wire: unsupported version %d", frame[2])
	}

	body := frame[:len(frame)-trailerLen]
	want := binary.BigEndian.Uint16(frame[len(frame)-trailerLen:])
	if got := crc16(body); got != want {
		return 0, fmt.Errorf("wire: crc mismatch: got %#04x want %#04x", got, want)
	}
	return frame[3], nil
}

// DecodeObservation parses a framed observation report.
func DecodeObservation(frame []byte) (model.Observation, error) {
	msgType, err := MessageType(frame)
	if err != nil {
		return model.Observation{}, err
	}
	if msgType != TypeObservation {
		return model.Observation{}, fmt.Errorf("wire: expected observation frame, got type %#x", msgType)
	}

	r := reader{buf: frame[headerLen : len(frame)-trailerLen]}
	var obs model.Observation
	obs.PingerID = r.string()
	obs.FrameID = r.string()
	nanos := r.uint64()
	obs.Range = r.float()
	obs.Bearing = r.float()
	obs.Elevation = r.float()
	if err := r.finish(); err != nil {
		return model.Observation{}, err
	}

	obs.Time = time.Unix(0, int64(nanos)).UTC()
	return obs, nil
}

// DecodePositionSet parses a framed beacon move request.
func DecodePositionSet(frame []byte) (PositionSet, error) {
	msgType, err := MessageType(frame)
	if err != nil {
		return PositionSet{}, err
	}
	if msgType != TypePositionSet {
		return PositionSet{}, fmt.Errorf("wire: expected position-set frame, got type %#x", msgType)
	}

	r := reader{buf: frame[headerLen : len(frame)-trailerLen]}
	var ps PositionSet
	ps.PingerID = r.string()
	ps.X = r.float()
	ps.Y = r.float()
	ps.Z = r.float()
	if err := r.finish(); err != nil {
		return PositionSet{}, err
	}
	return ps, nil
}

func appendHeader(buf []byte, msgType byte) []byte {
	return append(buf, magic0, magic1, Version, msgType)
}

func appendTrailer(buf []byte) []byte {
	return binary.BigEndian.AppendUint16(buf, crc16(buf))
}

func appendString(buf []byte, s string) []byte {
	buf = append(buf, byte(len(s)))
	return append(buf, s...)
}

func appendFloat(buf []byte, f float64) []byte {
	return binary.BigEndian.AppendUint64(buf, math.Float64bits(f))
}

func checkID(what, id string) error {
	if id == "" {
		return fmt.Errorf("wire: %s is required", what)
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("wire: %s longer than %d bytes", what, maxIDLen)
	}
	return nil
}

// reader is a cursor over a payload that records the first failure
// instead of forcing a check after every field.
type reader struct {
	buf []byte
	err error
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	if len(r.buf) < 1 {
		r.err = fmt.Errorf("wire: truncated payload")
		return ""
	}
	n := int(r.buf[0])
	if len(r.buf) < 1+n {
		r.err = fmt.Errorf("wire: truncated payload")
		return ""
	}
	s := string(r.buf[1 : 1+n])
	r.buf = r.buf[1+n:]
	return s
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	if len(r.buf) < 8 {
		r.err = fmt.Errorf("wire: truncated payload")
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[:8])
	r.buf = r.buf[8:]
	return v
}

func (r *reader) float() float64 {
	return math.Float64frombits(r.uint64())
}

func (r *reader) finish() error {
	if r.err != nil {
		return r.err
	}
	if len(r.buf) != 0 {
		return fmt.Errorf("wire: %d trailing bytes in payload", len(r.buf))
	}
	return nil
}
