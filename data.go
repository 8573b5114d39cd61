package h2conn

import (
	"github.com/h2lab/h2conn/h2util"
)

var _ Frame = &Data{}

// Data is the DATA frame (RFC 7540 §6.1), carrying a stream's body bytes.
//
// Applicable flags: END_STREAM, PADDED.
type Data struct {
	endStream  bool
	hasPadding bool
	b          []byte
}

func (d *Data) Type() FrameType {
	return FrameDataType
}

func (d *Data) Reset() {
	d.endStream = false
	d.hasPadding = false
	d.b = d.b[:0]
}

func (d *Data) CopyTo(other *Data) {
	other.hasPadding = d.hasPadding
	other.endStream = d.endStream
	other.b = append(other.b[:0], d.b...)
}

func (d *Data) EndStream() bool {
	return d.endStream
}

func (d *Data) SetEndStream(value bool) {
	d.endStream = value
}

// Data returns the frame's body bytes.
func (d *Data) Data() []byte {
	return d.b
}

func (d *Data) SetData(b []byte) {
	d.b = append(d.b[:0], b...)
}

func (d *Data) Append(b []byte) {
	d.b = append(d.b, b...)
}

func (d *Data) Len() int {
	return len(d.b)
}

func (d *Data) Padding() bool {
	return d.hasPadding
}

func (d *Data) SetPadding(value bool) {
	d.hasPadding = value
}

// Write implements io.Writer, appending b to the frame body.
func (d *Data) Write(b []byte) (int, error) {
	d.Append(b)
	return len(b), nil
}

func (d *Data) Deserialize(frh *FrameHeader) error {
	payload := frh.payload

	if frh.Flags().Has(FlagPadded) {
		var err error
		payload, err = h2util.CutPadding(payload, frh.Len())
		if err != nil {
			return err
		}
		d.hasPadding = true
	}

	d.endStream = frh.Flags().Has(FlagEndStream)
	d.b = append(d.b[:0], payload...)

	return nil
}

func (d *Data) Serialize(frh *FrameHeader) {
	if d.endStream {
		frh.SetFlags(frh.Flags().Add(FlagEndStream))
	}

	if d.hasPadding {
		frh.SetFlags(frh.Flags().Add(FlagPadded))
		d.b = h2util.AddPadding(d.b)
	}

	frh.setPayload(d.b)
}
