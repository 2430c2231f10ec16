package live

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gopstat/pkg/session"
	"github.com/itohio/gopstat/pkg/telemetry"
)

func TestServer_StreamsSnapshot(t *testing.T) {
	snap := session.Snapshot{
		State: session.StateRunning,
		Kind:  telemetry.ScanCV,
		Cycle: 2,
		Samples: []telemetry.Sample{
			{Time: 0.1, Potential: -0.4, Current: 1e-7},
			{Time: 0.2, Potential: -0.39, Current: 1.2e-7},
		},
	}
	s := New("", 50, func() session.Snapshot { return snap })

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(msg, &frame))
	assert.Equal(t, "running", frame.State)
	assert.Equal(t, "CV", frame.Kind)
	assert.Equal(t, 2, frame.Cycle)
	require.Len(t, frame.Points, 2)
	assert.InDelta(t, -0.4, frame.Points[0].V, 1e-12)
	assert.InDelta(t, 1.2e-7, frame.Points[1].I, 1e-12)
}
