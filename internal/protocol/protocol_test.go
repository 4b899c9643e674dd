package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Reader: control frames
// =============================================================================

func TestReadFrame_ControlNoParams(t *testing.T) {
	r := NewReader(strings.NewReader("LOGOUT\n"))
	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, KindControl, f.Kind)
	assert.Equal(t, "LOGOUT", f.Verb)
	assert.Nil(t, f.Params)
}

func TestReadFrame_ControlWithParams(t *testing.T) {
	r := NewReader(strings.NewReader("LOGIN alice|Secret1\n"))
	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "LOGIN", f.Verb)
	assert.Equal(t, []string{"alice", "Secret1"}, f.Params)
}

func TestReadFrame_ControlCRLF(t *testing.T) {
	r := NewReader(strings.NewReader("PING\r\n"))
	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "PING", f.Verb)
}

func TestReadFrame_TooManyParams(t *testing.T) {
	line := "VERB " + strings.Repeat("a|", 11) + "z\n"
	r := NewReader(strings.NewReader(line))
	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, ErrTooManyParams)
}

func TestReadFrame_EmptyLineMalformed(t *testing.T) {
	r := NewReader(strings.NewReader("\n"))
	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, ErrMalformed)
}

// =============================================================================
// Reader: data frames
// =============================================================================

func TestReadFrame_DataFrame(t *testing.T) {
	body := `{"ok":true}`
	input := "150 DATA 11\n" + body
	r := NewReader(strings.NewReader(input))
	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, KindData, f.Kind)
	assert.Equal(t, 150, f.Code)
	assert.Equal(t, []byte(body), f.Payload)
}

func TestReadFrame_DataFrameZeroLength(t *testing.T) {
	r := NewReader(strings.NewReader("141 DATA 0\n"))
	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, KindData, f.Kind)
	assert.Empty(t, f.Payload)
}

func TestReadFrame_DataFrameTruncatedPayload(t *testing.T) {
	r := NewReader(strings.NewReader("150 DATA 20\nshort"))
	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReadFrame_PayloadTooLong(t *testing.T) {
	r := NewReader(strings.NewReader("150 DATA 99999999\n"))
	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, ErrPayloadTooLong)
}

// =============================================================================
// Reader: disconnect / EOF
// =============================================================================

func TestReadFrame_CleanClose(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReadFrame_MultipleFramesSequential(t *testing.T) {
	r := NewReader(strings.NewReader("REGISTER bob|Secret1\nLOGIN bob|Secret1\n"))
	f1, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "REGISTER", f1.Verb)
	f2, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "LOGIN", f2.Verb)
}

// =============================================================================
// Writer
// =============================================================================

func TestWriteSimple_NoMessage(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteSimple(132, ""))
	assert.Equal(t, "132\n", buf.String())
}

func TestWriteSimple_WithMessage(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteSimple(132, "Goodbye"))
	assert.Equal(t, "132 Goodbye\n", buf.String())
}

func TestWriteData(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteData(150, []byte(`{"a":1}`)))
	assert.Equal(t, "150 DATA 7\n{\"a\":1}", buf.String())
}

func TestWriteRequest_WithParams(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRequest("LOGIN", "alice", "Secret1"))
	assert.Equal(t, "LOGIN alice|Secret1\n", buf.String())
}

func TestWriteRequest_NoParams(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRequest("LOGOUT"))
	assert.Equal(t, "LOGOUT\n", buf.String())
}

// =============================================================================
// Round trip
// =============================================================================

func TestRoundTrip_SimpleThenData(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteSimple(110, "sess_1_alice"))
	require.NoError(t, w.WriteData(121, []byte(`{"rooms":[]}`)))

	r := NewReader(&buf)
	f1, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, KindControl, f1.Kind)
	assert.Equal(t, "110", f1.Verb)
	assert.Equal(t, []string{"sess_1_alice"}, f1.Params)

	f2, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, KindData, f2.Kind)
	assert.Equal(t, 121, f2.Code)
	assert.Equal(t, `{"rooms":[]}`, string(f2.Payload))
}
