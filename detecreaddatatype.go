package microbiogeo

import (
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	}

	return "invalid"
}

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType attempts to detect the data type of a stream by checking
// against a set of known data types.  Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(r io.Reader) (DataType, error) {
	buff := make([]byte, 6)
	n, err := io.ReadFull(r, buff)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		// Shorter than the longest signature; compare what we have.
	} else if err != nil {
		return DataTypeInvalid, err
	}
	buff = buff[:n]

	// Match known signatures
Outer:
	for dt, sig := range byteCodeSigs {
		if len(sig) > len(buff) {
			continue
		}
		for position := range sig {
			if buff[position] != sig[position] {
				continue Outer
			}
		}
		return dt, nil
	}

	if isZlibHeader(buff) {
		return DataTypeZ, nil
	}

	return DataTypeNoCompression, nil
}

// isZlibHeader checks the RFC 1950 CMF/FLG pair: deflate with a window of at
// most 32K, no preset dictionary, and a header checksum divisible by 31.
func isZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}

	cmf, flg := b[0], b[1]
	if cmf&0x0f != 8 || cmf>>4 > 7 {
		return false
	}
	if flg&0x20 != 0 {
		return false
	}

	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// MaybeDecompressReadCloser sniffs the compression type of rs, rewinds it, and
// returns a reader that yields the decompressed stream. Uncompressed input is
// passed through.
func MaybeDecompressReadCloser(rs io.ReadSeeker) (io.ReadCloser, DataType, error) {
	dt, err := DetectDataType(rs)
	if err != nil {
		return nil, dt, err
	}

	// Reset your original reader
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, dt, err
	}

	switch dt {
	case DataTypeGzip:
		r, err := gzip.NewReader(rs)
		return r, dt, err
	case DataTypeZip:
		// Only the first entry of a zip archive is read.
		zr := zipstream.NewReader(rs)
		if _, err := zr.Next(); err != nil {
			return nil, dt, err
		}
		return &readCloserFaker{zr}, dt, nil
	case DataTypeBZip2:
		return &readCloserFaker{bzip2.NewReader(rs)}, dt, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(rs, 0)
		if err != nil {
			return nil, dt, err
		}
		return &readCloserFaker{reader}, dt, nil
	case DataTypeZ:
		r, err := zlib.NewReader(rs)
		return r, dt, err
	}

	// No data type detected. For now, we assume this is uncompressed.
	return &readCloserFaker{rs}, dt, nil
}

// readCloserFaker "upgrades" readers that don't need to be closed
type readCloserFaker struct {
	io.Reader
}

func (c *readCloserFaker) Close() error {
	return nil
}
