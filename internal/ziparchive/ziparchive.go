// Package ziparchive locates entries inside a ZIP file by walking local
// file headers from the start of the file, and provides raw DEFLATE
// inflation for entries that were stored with that compression method.
// No central directory is consulted and no ZIP64 extensions are
// understood; this mirrors how bkcrack itself reads archives, since the
// central directory cannot be trusted to describe encrypted entries
// truthfully.
package ziparchive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	dsnetflate "github.com/dsnet/compress/flate"
)

// localHeaderSignature is the 4-byte magic that introduces every ZIP
// local file header ("PK\x03\x04").
const localHeaderSignature = 0x04034b50

// ErrEntryNotFound means LocateEntry scanned every local header in the
// archive without finding one with the requested name.
var ErrEntryNotFound = errors.New("entry not found in archive")

// ErrArchiveMalformed means a local file header could not be parsed,
// either because its signature didn't match or a read failed partway
// through.
var ErrArchiveMalformed = errors.New("malformed zip local header")

// LocalHeader is a ZIP local file header, following the subset of fields
// bkcrack needs to locate an entry's compressed data.
type LocalHeader struct {
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	Name             string
}

// rawLocalHeader is the fixed-size portion of a local file header as it
// appears on disk, immediately following the 4-byte signature.
type rawLocalHeader struct {
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLen          uint16
	ExtraLen         uint16
}

// LocateEntry scans local file headers from the start of r looking for
// one named name. On success it returns the parsed header and the
// offset, relative to the start of r, where the entry's compressed data
// begins; r is left positioned there.
func LocateEntry(r io.ReadSeeker, name string) (*LocalHeader, int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seeking to start of archive: %w", err)
	}

	for {
		var sig uint32
		if err := binary.Read(r, binary.LittleEndian, &sig); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, 0, fmt.Errorf("%w: %q", ErrEntryNotFound, name)
			}
			return nil, 0, fmt.Errorf("reading local header signature: %w", err)
		}
		if sig != localHeaderSignature {
			// Anything other than a local header (a data descriptor, the
			// central directory, ...) means there are no more entries to
			// scan.
			return nil, 0, fmt.Errorf("%w: %q", ErrEntryNotFound, name)
		}

		var raw rawLocalHeader
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return nil, 0, fmt.Errorf("%w: reading fixed header fields: %v", ErrArchiveMalformed, err)
		}

		nameBuf := make([]byte, raw.NameLen)
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return nil, 0, fmt.Errorf("%w: reading entry name: %v", ErrArchiveMalformed, err)
		}

		if _, err := r.Seek(int64(raw.ExtraLen), io.SeekCurrent); err != nil {
			return nil, 0, fmt.Errorf("%w: skipping extra field: %v", ErrArchiveMalformed, err)
		}

		dataOffset, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, fmt.Errorf("reading current offset: %w", err)
		}

		header := &LocalHeader{
			VersionNeeded:    raw.VersionNeeded,
			Flags:            raw.Flags,
			Method:           raw.Method,
			ModTime:          raw.ModTime,
			ModDate:          raw.ModDate,
			CRC32:            raw.CRC32,
			CompressedSize:   raw.CompressedSize,
			UncompressedSize: raw.UncompressedSize,
			Name:             string(nameBuf),
		}

		if header.Name == name {
			return header, dataOffset, nil
		}

		if _, err := r.Seek(int64(raw.CompressedSize), io.SeekCurrent); err != nil {
			return nil, 0, fmt.Errorf("%w: skipping entry data for %q: %v", ErrArchiveMalformed, header.Name, err)
		}
	}
}

// ReadEntry locates name inside r and returns its raw, still-compressed
// bytes.
func ReadEntry(r io.ReadSeeker, name string) (*LocalHeader, []byte, error) {
	header, offset, err := LocateEntry(r, name)
	if err != nil {
		return nil, nil, err
	}
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("seeking to entry data: %w", err)
	}

	buf := make([]byte, header.CompressedSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, nil, fmt.Errorf("%w: reading entry data for %q: %v", ErrArchiveMalformed, name, err)
	}

	return header, buf, nil
}

// InflateRaw wraps r in a raw DEFLATE decompressor (no zlib or gzip
// envelope), as used by the ZIP "deflate" compression method.
func InflateRaw(r io.Reader) io.ReadCloser {
	return dsnetflate.NewReader(r)
}
