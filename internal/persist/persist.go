// Package persist serializes a compiled function's machine code and
// metadata into a single versioned binary blob (spec §6.6, the
// persistent context file), and reads it back.
//
// The format is a hand-rolled length-tagged layout rather than
// encoding/gob: wazero's own on-disk compilation cache (see
// engine_cache.go at the wazero repo root) writes a magic header,
// a length-prefixed version string, then length-tagged sections with
// encoding/binary; this package follows that idiom rather than
// reaching for a generic encoder the teacher never uses.
package persist

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// magic identifies a context blob produced by this package.
const magic = "MUCTX1"

// FormatVersion is bumped whenever the blob layout below changes
// incompatibly. A reader refuses to load a blob stamped with a
// different version rather than guess at its layout.
const FormatVersion = 1

// Context is one compiled function's persisted state: its native code,
// the stack-frame size it requires, and the exception callsite table
// used by the unwinder (spec §6.5/§6.6).
type Context struct {
	Symbol    string
	Code      []byte
	FrameSize int64
	Callsites []CallsiteEntry
}

// CallsiteEntry mirrors package frame's Callsite, duplicated here so
// package persist has no import dependency on package frame's internal
// representation and can evolve its wire format independently.
type CallsiteEntry struct {
	ReturnAddr int64
	LandingPad int64
}

// Write serializes ctx as:
//
//	6 bytes  magic
//	4 bytes  format version (LE u32)
//	1 byte   length of Symbol
//	N bytes  Symbol
//	8 bytes  FrameSize (LE i64, reinterpreted as u64)
//	4 bytes  number of callsites (LE u32)
//	16 bytes per callsite (ReturnAddr, LandingPad, each LE i64)
//	8 bytes  length of Code (LE u64)
//	N bytes  Code
func Write(w io.Writer, ctx *Context) error {
	if len(ctx.Symbol) > 0xFF {
		return fmt.Errorf("persist: symbol %q exceeds 255 bytes", ctx.Symbol)
	}
	buf := bytes.NewBuffer(nil)
	buf.WriteString(magic)
	writeU32(buf, FormatVersion)
	buf.WriteByte(byte(len(ctx.Symbol)))
	buf.WriteString(ctx.Symbol)
	writeU64(buf, uint64(ctx.FrameSize))
	writeU32(buf, uint32(len(ctx.Callsites)))
	for _, cs := range ctx.Callsites {
		writeU64(buf, uint64(cs.ReturnAddr))
		writeU64(buf, uint64(cs.LandingPad))
	}
	writeU64(buf, uint64(len(ctx.Code)))
	buf.Write(ctx.Code)

	_, err := w.Write(buf.Bytes())
	return err
}

// Read deserializes a Context previously produced by Write. It returns
// an error if the magic or format version does not match, rather than
// attempting to interpret an incompatible layout.
func Read(r io.Reader) (*Context, error) {
	var eight [8]byte

	hdr := make([]byte, len(magic)+4)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("persist: reading header: %w", err)
	}
	if string(hdr[:len(magic)]) != magic {
		return nil, fmt.Errorf("persist: bad magic %q", hdr[:len(magic)])
	}
	version := binary.LittleEndian.Uint32(hdr[len(magic):])
	if version != FormatVersion {
		return nil, fmt.Errorf("persist: unsupported format version %d (want %d)", version, FormatVersion)
	}

	symLen := make([]byte, 1)
	if _, err := io.ReadFull(r, symLen); err != nil {
		return nil, fmt.Errorf("persist: reading symbol length: %w", err)
	}
	sym := make([]byte, symLen[0])
	if _, err := io.ReadFull(r, sym); err != nil {
		return nil, fmt.Errorf("persist: reading symbol: %w", err)
	}

	frameSize, err := readU64(r, &eight)
	if err != nil {
		return nil, fmt.Errorf("persist: reading frame size: %w", err)
	}

	numCallsites, err := readU32(r, &eight)
	if err != nil {
		return nil, fmt.Errorf("persist: reading callsite count: %w", err)
	}
	callsites := make([]CallsiteEntry, numCallsites)
	for i := range callsites {
		ra, err := readU64(r, &eight)
		if err != nil {
			return nil, fmt.Errorf("persist: reading callsite[%d] return addr: %w", i, err)
		}
		lp, err := readU64(r, &eight)
		if err != nil {
			return nil, fmt.Errorf("persist: reading callsite[%d] landing pad: %w", i, err)
		}
		callsites[i] = CallsiteEntry{ReturnAddr: int64(ra), LandingPad: int64(lp)}
	}

	codeLen, err := readU64(r, &eight)
	if err != nil {
		return nil, fmt.Errorf("persist: reading code length: %w", err)
	}
	code := make([]byte, codeLen)
	if _, err := io.ReadFull(r, code); err != nil {
		return nil, fmt.Errorf("persist: reading code: %w", err)
	}

	return &Context{
		Symbol:    string(sym),
		Code:      code,
		FrameSize: int64(frameSize),
		Callsites: callsites,
	}, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func readU32(r io.Reader, scratch *[8]byte) (uint32, error) {
	b := scratch[0:4]
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func readU64(r io.Reader, scratch *[8]byte) (uint64, error) {
	b := scratch[0:8]
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}
