package h2conn

var (
	_ Frame            = &Continuation{}
	_ FrameWithHeaders = &Continuation{}
)

// Continuation is the CONTINUATION frame (RFC 7540 §6.10): a header-block
// fragment continuing a HEADERS or PUSH_PROMISE frame that did not set
// END_HEADERS.
type Continuation struct {
	endHeaders bool
	rawHeaders []byte
}

func (c *Continuation) Type() FrameType {
	return FrameContinuationType
}

func (c *Continuation) Reset() {
	c.endHeaders = false
	c.rawHeaders = c.rawHeaders[:0]
}

func (c *Continuation) CopyTo(other *Continuation) {
	other.endHeaders = c.endHeaders
	other.rawHeaders = append(other.rawHeaders[:0], c.rawHeaders...)
}

func (c *Continuation) HeaderBlock() []byte {
	return c.rawHeaders
}

func (c *Continuation) SetHeaderBlock(b []byte) {
	c.rawHeaders = append(c.rawHeaders[:0], b...)
}

func (c *Continuation) EndHeaders() bool {
	return c.endHeaders
}

func (c *Continuation) SetEndHeaders(value bool) {
	c.endHeaders = value
}

func (c *Continuation) Deserialize(frh *FrameHeader) error {
	c.endHeaders = frh.Flags().Has(FlagEndHeaders)
	c.rawHeaders = append(c.rawHeaders[:0], frh.payload...)
	return nil
}

func (c *Continuation) Serialize(frh *FrameHeader) {
	if c.endHeaders {
		frh.SetFlags(frh.Flags().Add(FlagEndHeaders))
	}
	frh.setPayload(c.rawHeaders)
}
