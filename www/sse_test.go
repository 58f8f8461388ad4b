package www

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabrica/engine"
)

func TestHubTopicFilter(t *testing.T) {
	h := NewEventHub()
	all := h.addClient()
	stock := h.addClient("stock")
	assert.Equal(t, 2, h.ClientCount())

	h.fanOut(SSEEvent{Event: "stock-low", Data: "{}"})
	h.fanOut(SSEEvent{Event: "order-update", Data: "{}"})

	assert.Len(t, all.ch, 2)
	require.Len(t, stock.ch, 1)
	assert.Equal(t, "stock-low", (<-stock.ch).Event)

	h.removeClient(stock)
	assert.Equal(t, 1, h.ClientCount())
}

func TestSSEStreamOpensWithStatus(t *testing.T) {
	h := NewEventHub()
	h.status = func() engine.Status { return engine.Status{Cache: true} }
	h.Start()
	defer h.Stop()

	srv := httptest.NewServer(http.HandlerFunc(h.SSEHandler))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?topics=stock")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rd := bufio.NewReader(resp.Body)
	line, err := rd.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: system-status", strings.TrimSpace(line))
	line, err = rd.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, `data: {"messaging":false,"cache":true}`, strings.TrimSpace(line))
}
