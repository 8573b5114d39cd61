package h2conn

import (
	"bytes"

	"golang.org/x/net/http2/hpack"
)

// HPACK is one direction (encode or decode) of a connection's header
// compression context, confined to the owning connection task. RFC 7541
// requires the encoder and decoder dynamic tables to be tracked
// independently, so a connection holds two HPACK values.
//
// The Huffman coding and dynamic-table bookkeeping are delegated to
// golang.org/x/net/http2/hpack; this type adds the SETTINGS-driven max
// table size wiring and the AcquireHeaderField-based encode API the rest
// of this module uses.
type HPACK struct {
	enc *hpack.Encoder
	buf bytes.Buffer

	dec      *hpack.Decoder
	fields   []*HeaderField
	decodeOK bool
}

// NewHPACK returns an HPACK context ready to encode and decode with the
// RFC 7541 default dynamic table size.
func NewHPACK() *HPACK {
	hp := &HPACK{}
	hp.enc = hpack.NewEncoder(&hp.buf)
	hp.dec = hpack.NewDecoder(DefaultHeaderTableSize, hp.onDecode)
	return hp
}

func (hp *HPACK) onDecode(f hpack.HeaderField) {
	hf := AcquireHeaderField()
	hf.SetBytes([]byte(f.Name), []byte(f.Value))
	hf.SetSensitive(f.Sensitive)
	hp.fields = append(hp.fields, hf)
}

// SetMaxEncoderTableSize and SetMaxDecoderTableSize update the table size
// this side of the context will use: for the encoder, the remote peer's
// advertised SETTINGS_HEADER_TABLE_SIZE; for the decoder, an in-band
// dynamic-table-size-update the local peer intends to honor.
func (hp *HPACK) SetMaxEncoderTableSize(v uint32) {
	hp.enc.SetMaxDynamicTableSize(v)
}

func (hp *HPACK) SetMaxDecoderTableSize(v uint32) {
	hp.dec.SetMaxDynamicTableSize(v)
}

// AppendHeaderField HPACK-encodes hf and appends the result to dst.
func (hp *HPACK) AppendHeaderField(dst []byte, hf *HeaderField) ([]byte, error) {
	hp.buf.Reset()

	err := hp.enc.WriteField(hpack.HeaderField{
		Name:      string(hf.KeyBytes()),
		Value:     string(hf.ValueBytes()),
		Sensitive: hf.IsSensitive(),
	})
	if err != nil {
		return dst, NewError(CompressionError, err.Error())
	}

	return append(dst, hp.buf.Bytes()...), nil
}

// Next decodes as many complete header fields as b contains, invoking fn
// for each in wire order, and returns a CompressionError on malformed
// input, per RFC 7541 §4.1/§6.
//
// fn takes ownership of hf: Next itself never releases a field once fn has
// been called for it, so fn must either release it (a field the caller
// only inspects) or retain the pointer (a field the caller stores, e.g. in
// a Stream's header list) and release it whenever that storage is done
// with it.
//
// b may span multiple calls (e.g. across HEADERS + CONTINUATION frames);
// the underlying decoder retains any partial state between calls as long
// as Next is not called concurrently from more than one goroutine — which
// the single-owner connection task guarantees.
func (hp *HPACK) Next(b []byte, fn func(hf *HeaderField)) error {
	hp.fields = hp.fields[:0]

	_, err := hp.dec.Write(b)
	if err != nil {
		hp.releaseFields()
		return NewError(CompressionError, err.Error())
	}

	fields := hp.fields
	hp.fields = nil
	for _, hf := range fields {
		fn(hf)
	}

	return nil
}

// Close finalizes decoding (e.g. after END_HEADERS), surfacing any
// trailing decode error as a CompressionError.
func (hp *HPACK) Close() error {
	if err := hp.dec.Close(); err != nil {
		return NewError(CompressionError, err.Error())
	}
	return nil
}

func (hp *HPACK) releaseFields() {
	for _, hf := range hp.fields {
		ReleaseHeaderField(hf)
	}
	hp.fields = hp.fields[:0]
}
