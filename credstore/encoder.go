package credstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const recordFormatVersionCurrent = 1

var errFieldTooLong = errors.New("record field too long")

// Encode serializes a Record into the versioned binary format. The leading
// byte is the format version; strings are uint16-length-prefixed so access
// tokens larger than 255 bytes round-trip.
func Encode(r *Record) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte(recordFormatVersionCurrent)
	buf.WriteByte(r.Method)

	for _, s := range []string{
		r.AccessToken,
		r.RefreshToken,
		r.UserID,
		r.Email,
		r.DisplayName,
		r.LegacyUsername,
		r.LegacyUID,
	} {
		if err := writeString(&buf, s); err != nil {
			return nil, err
		}
	}

	writeBool(&buf, r.EmailVerified)
	writeBool(&buf, r.IsActive)

	for _, v := range []int64{r.CreatedAt, r.LastLoginAt, r.LegacyID, r.SavedAt} {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Decode parses a serialized Record. Any structural defect — unknown version,
// truncated field, variant invariant violation — yields an error; the caller
// treats the record as corrupt and equivalent to absent.
func Decode(data []byte) (*Record, error) {
	rd := bytes.NewReader(data)

	version, err := rd.ReadByte()
	if err != nil {
		return nil, errors.New("record truncated")
	}
	if version != recordFormatVersionCurrent {
		return nil, errors.New("unknown record format version")
	}

	method, err := rd.ReadByte()
	if err != nil {
		return nil, errors.New("record truncated")
	}

	r := &Record{Method: method}

	for _, dst := range []*string{
		&r.AccessToken,
		&r.RefreshToken,
		&r.UserID,
		&r.Email,
		&r.DisplayName,
		&r.LegacyUsername,
		&r.LegacyUID,
	} {
		s, err := readString(rd)
		if err != nil {
			return nil, err
		}
		*dst = s
	}

	if r.EmailVerified, err = readBool(rd); err != nil {
		return nil, err
	}
	if r.IsActive, err = readBool(rd); err != nil {
		return nil, err
	}

	for _, dst := range []*int64{&r.CreatedAt, &r.LastLoginAt, &r.LegacyID, &r.SavedAt} {
		if err := binary.Read(rd, binary.BigEndian, dst); err != nil {
			return nil, errors.New("record truncated")
		}
	}

	if rd.Len() != 0 {
		return nil, errors.New("record has trailing bytes")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return errFieldTooLong
	}
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(s)))
	buf.Write(l[:])
	buf.WriteString(s)
	return nil
}

func readString(rd *bytes.Reader) (string, error) {
	var l [2]byte
	if _, err := io.ReadFull(rd, l[:]); err != nil {
		return "", errors.New("record truncated")
	}
	n := int(binary.BigEndian.Uint16(l[:]))
	if n == 0 {
		return "", nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rd, b); err != nil {
		return "", errors.New("record truncated")
	}
	return string(b), nil
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readBool(rd *bytes.Reader) (bool, error) {
	b, err := rd.ReadByte()
	if err != nil {
		return false, errors.New("record truncated")
	}
	if b > 1 {
		return false, errors.New("invalid bool byte")
	}
	return b == 1, nil
}
