package events

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	subject, payload, err := encode("mindcanvas.mindmaps", Event{Type: MindMapUpdated, MindMapID: "m1", UserID: "u1", Version: 3, At: at})
	require.NoError(t, err)
	assert.Equal(t, "mindcanvas.mindmaps.updated", subject)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "m1", got["mindMapId"])
	assert.Equal(t, float64(3), got["version"])
	assert.NotContains(t, got, "subject")

	_, payload, err = encode("p", Event{Type: CollaboratorAdded})
	require.NoError(t, err)
	var withTime Event
	require.NoError(t, json.Unmarshal(payload, &withTime))
	assert.False(t, withTime.At.IsZero(), "missing timestamps are filled in")
}

func TestNewNATSFailsWithoutServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewNATS("nats://"+addr, "mindcanvas")
	assert.Error(t, err)
}

func TestRecorderAndNoop(t *testing.T) {
	ctx := context.Background()
	var p Publisher = &Recorder{}
	require.NoError(t, p.Publish(ctx, Event{Type: MindMapCreated, MindMapID: "a"}))
	require.NoError(t, p.Publish(ctx, Event{Type: MindMapDeleted, MindMapID: "a"}))

	got := p.(*Recorder).Events()
	require.Len(t, got, 2)
	assert.Equal(t, MindMapDeleted, got[1].Type)

	p = Noop{}
	assert.NoError(t, p.Publish(ctx, Event{}))
	p.Close()
}
