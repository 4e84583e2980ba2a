package serialization

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/tetranet/tetrad/domain/consensus/model/externalapi"
)

// maxVarBytesLength bounds variable length byte arrays read from the wire.
// Nothing serialized can be larger than a block.
const maxVarBytesLength = 1_000_000

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

var errMalformed = errors.New("errMalformed")

var littleEndian = binary.LittleEndian

// WriteElement writes the little endian representation of element to w.
func WriteElement(w io.Writer, element interface{}) error {
	// Attempt to write the element based on the concrete type via fast
	// type assertions first.
	switch e := element.(type) {
	case int32:
		return writeUint32(w, uint32(e))

	case uint32:
		return writeUint32(w, e)

	case uint16:
		var buf [2]byte
		littleEndian.PutUint16(buf[:], e)
		_, err := w.Write(buf[:])
		return errors.WithStack(err)

	case uint64:
		var buf [8]byte
		littleEndian.PutUint64(buf[:], e)
		_, err := w.Write(buf[:])
		return errors.WithStack(err)

	case uint8:
		_, err := w.Write([]byte{e})
		return errors.WithStack(err)

	case externalapi.DomainHash:
		_, err := w.Write(e.ByteSlice())
		return errors.WithStack(err)

	case *externalapi.DomainHash:
		_, err := w.Write(e.ByteSlice())
		return errors.WithStack(err)
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
}

func writeUint32(w io.Writer, value uint32) error {
	var buf [4]byte
	littleEndian.PutUint32(buf[:], value)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to writeElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func ReadElement(r io.Reader, element interface{}) error {
	// Attempt to read the element based on the concrete type via fast
	// type assertions first.
	switch e := element.(type) {
	case *int32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = int32(littleEndian.Uint32(buf[:]))
		return nil

	case *uint32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = littleEndian.Uint32(buf[:])
		return nil

	case *uint16:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = littleEndian.Uint16(buf[:])
		return nil

	case *uint64:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = littleEndian.Uint64(buf[:])
		return nil

	case *uint8:
		var buf [1]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = buf[0]
		return nil

	case *externalapi.DomainHash:
		var buf [externalapi.DomainHashSize]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return errors.WithStack(err)
		}
		*e = *externalapi.NewDomainHashFromByteArray(&buf)
		return nil
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to read type %T", element)
}

// ReadElements reads multiple items from r. It is equivalent to multiple
// calls to ReadElement.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadVarInt reads a variable length integer from r and returns it as a uint64.
func ReadVarInt(r io.Reader) (uint64, error) {
	var discriminant uint8
	err := ReadElement(r, &discriminant)
	if err != nil {
		return 0, err
	}

	var rv, min uint64
	switch discriminant {
	case 0xff:
		err = ReadElement(r, &rv)
		min = 0x100000000

	case 0xfe:
		var sv uint32
		err = ReadElement(r, &sv)
		rv = uint64(sv)
		min = 0x10000

	case 0xfd:
		var sv uint16
		err = ReadElement(r, &sv)
		rv = uint64(sv)
		min = 0xfd

	default:
		return uint64(discriminant), nil
	}
	if err != nil {
		return 0, err
	}

	// The encoding is not canonical if the value could have been
	// encoded using fewer bytes.
	if rv < min {
		return 0, errors.Wrapf(errMalformed, "non-canonical varint %x - discriminant "+
			"%x must encode a value greater than %x", rv, discriminant, min)
	}
	return rv, nil
}

// WriteVarInt serializes val to w using a variable number of bytes depending
// on its value.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		_, err := w.Write([]byte{uint8(val)})
		return errors.WithStack(err)
	}

	if val <= math.MaxUint16 {
		var buf [3]byte
		buf[0] = 0xfd
		littleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf[:])
		return errors.WithStack(err)
	}

	if val <= math.MaxUint32 {
		var buf [5]byte
		buf[0] = 0xfe
		littleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf[:])
		return errors.WithStack(err)
	}

	var buf [9]byte
	buf[0] = 0xff
	littleEndian.PutUint64(buf[1:], val)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	// The value is small enough to be represented by itself, so it's
	// just 1 byte.
	if val < 0xfd {
		return 1
	}

	// Discriminant 1 byte plus 2 bytes for the uint16.
	if val <= math.MaxUint16 {
		return 3
	}

	// Discriminant 1 byte plus 4 bytes for the uint32.
	if val <= math.MaxUint32 {
		return 5
	}

	// Discriminant 1 byte plus 8 bytes for the uint64.
	return 9
}

// ReadVarBytes reads a variable length byte array. A byte array is encoded
// as a varInt containing the length of the array followed by the bytes
// themselves.
func ReadVarBytes(r io.Reader, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	// Prevent byte array larger than the max message size. It would
	// be possible to cause memory exhaustion and panics without a sane
	// upper bound on this count.
	if count > maxVarBytesLength {
		return nil, errors.Wrapf(errMalformed, "%s is larger than the max allowed size "+
			"[count %d, max %d]", fieldName, count, maxVarBytesLength)
	}

	b := make([]byte, count)
	_, err = io.ReadFull(r, b)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return b, nil
}

// WriteVarBytes serializes a variable length byte array to w as a varInt
// containing the number of bytes, followed by the bytes themselves.
func WriteVarBytes(w io.Writer, bytes []byte) error {
	err := WriteVarInt(w, uint64(len(bytes)))
	if err != nil {
		return err
	}

	_, err = w.Write(bytes)
	return errors.WithStack(err)
}

// ReadCount reads a varint element count and rejects counts that cannot
// fit in a block given minElementSize bytes per element.
func ReadCount(r io.Reader, fieldName string, minElementSize uint64) (uint64, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return 0, err
	}
	if count > maxVarBytesLength/minElementSize {
		return 0, errors.Wrapf(errMalformed, "too many %s [count %d]", fieldName, count)
	}
	return count, nil
}

// IsMalformedError returns whether the error indicates a malformed data source
func IsMalformedError(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) || errors.Is(err, errMalformed)
}
