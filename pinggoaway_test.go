package h2conn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingSerializeFixture(t *testing.T) {
	ping := AcquireFrame(FramePingType).(*Ping)
	defer ReleaseFrame(ping)
	ping.SetData([]byte{1, 2, 3, 4, 5, 6, 7, 8})

	got := serializeFrame(t, ping, 0)
	want := []byte{
		0x00, 0x00, 0x08, 0x06, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	}
	assert.Equal(t, want, got)
}

func TestGoAwaySerializeFixtureNoDebug(t *testing.T) {
	ga := AcquireFrame(FrameGoAwayType).(*GoAway)
	defer ReleaseFrame(ga)
	ga.SetLastStreamID(1)
	ga.SetCode(InternalError)

	got := serializeFrame(t, ga, 0)
	want := []byte{
		0x00, 0x00, 0x08, 0x07, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02,
	}
	assert.Equal(t, want, got)
}

func TestGoAwaySerializeFixtureWithDebug(t *testing.T) {
	ga := AcquireFrame(FrameGoAwayType).(*GoAway)
	defer ReleaseFrame(ga)
	ga.SetLastStreamID(1)
	ga.SetCode(InternalError)
	ga.SetData([]byte{0x03, 0x04})

	got := serializeFrame(t, ga, 0)
	want := []byte{
		0x00, 0x00, 0x0a, 0x07, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x03, 0x04,
	}
	assert.Equal(t, want, got)
}

func TestPingDeserializeRejectsShortPayload(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.payload = []byte{0x01, 0x02, 0x03}

	ping := &Ping{}
	err := ping.Deserialize(frh)
	assert.ErrorIs(t, err, ErrMissingBytes)
}

func TestGoAwayDeserializeRoundTrip(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.payload = []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x03, 0x04}

	ga := &GoAway{}
	require.NoError(t, ga.Deserialize(frh))
	assert.Equal(t, uint32(1), ga.LastStreamID())
	assert.Equal(t, InternalError, ga.Code())
	assert.Equal(t, []byte{0x03, 0x04}, ga.Data())
}
