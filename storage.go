package dlt

import "time"

// storageMagic is the fixed 4 byte prefix of every on-disk storage header.
var storageMagic = [4]byte{'D', 'L', 'T', 0x01}

// StorageHeaderSize is the fixed, always-present size of a StorageHeader.
const StorageHeaderSize = 16

// StorageHeader is the optional 16 byte on-disk framing prefix: present in
// captured .dlt files, absent on the wire (spec §3).
type StorageHeader struct {
	Seconds      uint32
	Microseconds uint32
	// ECUID is the NUL-padded ASCII ECU identifier. ECUIDClean is false when the
	// bytes contained non-ASCII/non-NUL content; the raw text is preserved
	// either way so the serializer can reproduce it verbatim.
	ECUID      string
	ECUIDClean bool
}

// Time returns the storage header's reception timestamp as a UTC time.Time.
func (h StorageHeader) Time() time.Time {
	return time.Unix(int64(h.Seconds), int64(h.Microseconds)*1000).UTC()
}

func decodeStorageHeader(c *cursor) (StorageHeader, error) {
	magic, err := c.take(4)
	if err != nil {
		return StorageHeader{}, err
	}
	if magic[0] != storageMagic[0] || magic[1] != storageMagic[1] || magic[2] != storageMagic[2] || magic[3] != storageMagic[3] {
		return StorageHeader{}, ErrBadStorageMagic
	}
	sec, err := c.u32(littleEndian)
	if err != nil {
		return StorageHeader{}, err
	}
	mic, err := c.u32(littleEndian)
	if err != nil {
		return StorageHeader{}, err
	}
	ecu, clean, err := c.fixedID(4)
	if err != nil {
		return StorageHeader{}, err
	}
	return StorageHeader{
		Seconds:      sec,
		Microseconds: mic,
		ECUID:        ecu,
		ECUIDClean:   clean,
	}, nil
}

func encodeStorageHeader(h StorageHeader, w *encodeBuf) {
	w.bytes(storageMagic[:])
	w.u32(littleEndian, h.Seconds)
	w.u32(littleEndian, h.Microseconds)
	w.id4(h.ECUID)
}

// scanForStorageMagic returns the index of the next occurrence of the storage
// header magic `DLT\x01` in buf at or after from, or -1 if none is found. This
// is the "scan for the magic" half of the resynchronizer described in spec §4.6
// — used to skip arbitrarily large corrupt stretches rather than advancing
// ResyncQuantum bytes at a time.
func scanForStorageMagic(buf []byte, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+4 <= len(buf); i++ {
		if buf[i] == storageMagic[0] && buf[i+1] == storageMagic[1] && buf[i+2] == storageMagic[2] && buf[i+3] == storageMagic[3] {
			return i
		}
	}
	return -1
}
