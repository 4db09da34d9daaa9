// Package rpmtest builds minimal RPM files for tests.
package rpmtest

import (
	"bytes"
	"encoding/binary"

	"github.com/sassoftware/go-rpmutils"
)

const (
	leadMagic   = 0xedabeedb
	leadSize    = 96
	headerMagic = 0x8eade801
)

// Build returns an RPM with an empty signature header, a header holding
// the name, version, release and arch tags, and a zero payload padding the
// file to size bytes.
func Build(name, version, release, arch string, size int) []byte {
	var buf bytes.Buffer

	lead := make([]byte, leadSize)
	binary.BigEndian.PutUint32(lead, leadMagic)
	buf.Write(lead)

	buf.Write(header(nil, nil))
	buf.Write(header(
		[]int{rpmutils.NAME, rpmutils.VERSION, rpmutils.RELEASE, rpmutils.ARCH},
		[]string{name, version, release, arch},
	))

	if pad := size - buf.Len(); pad > 0 {
		buf.Write(make([]byte, pad))
	}
	return buf.Bytes()
}

// header encodes string tags; an empty header needs no alignment padding
func header(tags []int, values []string) []byte {
	var index, store bytes.Buffer
	for i, tag := range tags {
		entry := [4]int32{int32(tag), rpmutils.RPM_STRING_TYPE, int32(store.Len()), 1}
		binary.Write(&index, binary.BigEndian, entry)
		store.WriteString(values[i])
		store.WriteByte(0)
	}

	var out bytes.Buffer
	intro := [4]uint32{headerMagic, 0, uint32(len(tags)), uint32(store.Len())}
	binary.Write(&out, binary.BigEndian, intro)
	out.Write(index.Bytes())
	out.Write(store.Bytes())
	return out.Bytes()
}
