// Package id generates and inspects ULIDs used for dispatch and request IDs.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"strings"
	"time"
)

// ErrInvalidULID is returned by Time for malformed identifiers.
var ErrInvalidULID = errors.New("id: invalid ULID")

// Crockford's Base32 alphabet (excludes I, L, O, U).
const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const ulidLen = 26

// NewULID returns a 26-character identifier: 48 bits of millisecond time
// followed by 80 random bits. IDs sort lexicographically by creation time.
func NewULID() string {
	return newULIDAt(time.Now())
}

func newULIDAt(t time.Time) string {
	var raw [16]byte
	ms := uint64(t.UnixMilli())
	binary.BigEndian.PutUint16(raw[0:2], uint16(ms>>32))
	binary.BigEndian.PutUint32(raw[2:6], uint32(ms))
	if _, err := rand.Read(raw[6:]); err != nil {
		binary.BigEndian.PutUint64(raw[6:14], uint64(t.UnixNano()))
	}

	hi := binary.BigEndian.Uint64(raw[0:8])
	lo := binary.BigEndian.Uint64(raw[8:16])

	// 128 bits into 26 chars: the first char carries the top 3 bits.
	var out [ulidLen]byte
	for i := ulidLen - 1; i >= 0; i-- {
		out[i] = crockfordBase32[lo&0x1F]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}

// Time returns the creation time encoded in a ULID.
func Time(ulid string) (time.Time, error) {
	if len(ulid) != ulidLen {
		return time.Time{}, ErrInvalidULID
	}
	var ms uint64
	for i := range ulidLen {
		v := strings.IndexByte(crockfordBase32, upper(ulid[i]))
		if v < 0 {
			return time.Time{}, ErrInvalidULID
		}
		if i < 10 {
			ms = ms<<5 | uint64(v)
		}
	}
	if ms>>48 != 0 {
		return time.Time{}, ErrInvalidULID
	}
	return time.UnixMilli(int64(ms)), nil
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
