package events

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	event string
	data  string
}

func collectFrames(t *testing.T, stream string) []frame {
	t.Helper()
	var frames []frame
	err := readFrames(strings.NewReader(stream), func(event string, data []byte) {
		frames = append(frames, frame{event: event, data: string(data)})
	})
	require.ErrorIs(t, err, io.EOF)
	return frames
}

func TestReadFramesSingleEvent(t *testing.T) {
	frames := collectFrames(t, "event: node_health\ndata: [{\"id\":1}]\n\n")
	assert.Equal(t, []frame{{"node_health", `[{"id":1}]`}}, frames)
}

func TestReadFramesMultipleEvents(t *testing.T) {
	frames := collectFrames(t,
		"event: health_summary\ndata: {\"online\":2}\n\n"+
			"event: node_health\ndata: []\n\n")
	assert.Equal(t, []frame{
		{"health_summary", `{"online":2}`},
		{"node_health", "[]"},
	}, frames)
}

func TestReadFramesMultiLineDataJoined(t *testing.T) {
	frames := collectFrames(t, "event: node_health\ndata: line one\ndata: line two\n\n")
	require.Len(t, frames, 1)
	assert.Equal(t, "line one\nline two", frames[0].data)
}

func TestReadFramesSkipsCommentsAndUnknownFields(t *testing.T) {
	frames := collectFrames(t,
		": heartbeat\n\n"+
			"retry: 3000\nid: 7\n\n"+
			"event: node_health\ndata: x\n\n")
	assert.Equal(t, []frame{{"node_health", "x"}}, frames)
}

func TestReadFramesCRLFLineEndings(t *testing.T) {
	frames := collectFrames(t, "event: node_health\r\ndata: payload\r\n\r\n")
	assert.Equal(t, []frame{{"node_health", "payload"}}, frames)
}

func TestReadFramesNoSpaceAfterColon(t *testing.T) {
	frames := collectFrames(t, "event:node_health\ndata:tight\n\n")
	assert.Equal(t, []frame{{"node_health", "tight"}}, frames)
}

func TestReadFramesUnterminatedFrameDropped(t *testing.T) {
	// No trailing blank line: the final partial frame is never flushed.
	frames := collectFrames(t, "event: node_health\ndata: partial")
	assert.Empty(t, frames)
}

func TestReadFramesPropagatesReadError(t *testing.T) {
	err := readFrames(io.MultiReader(
		strings.NewReader("event: node_health\n"),
		&failingReader{},
	), func(string, []byte) {
		t.Fatal("no frame should be emitted")
	})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

type failingReader struct{}

func (*failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
