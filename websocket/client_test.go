package websocket

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LagrangeGo/bot"
	"LagrangeGo/config"
	"LagrangeGo/utils"
)

func newReverseClient(t *testing.T, universal string) *Client {
	t.Helper()
	store, err := utils.NewMessageStore(utils.DefaultOptions)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	conf := &config.WSReverse{
		Universal:         universal,
		ReconnectInterval: 100,
		HeartbeatInterval: 60000,
		MaxRetries:        1,
	}
	return NewWebSocketClient(conf, bot.New(testUin, "测试机器人", store))
}

func TestClientManager(t *testing.T) {
	manager := &ClientManager{clients: make(map[string]*Client)}

	client := newReverseClient(t, "ws://127.0.0.1:1/universal")
	manager.AddClient(client)

	got, exists := manager.GetClient(client.ID)
	require.True(t, exists)
	assert.Same(t, client, got)
	assert.Len(t, manager.GetAllClients(), 1)

	manager.RemoveClient(client.ID)
	_, exists = manager.GetClient(client.ID)
	assert.False(t, exists)
	assert.False(t, client.Reconnect)

	manager.AddClient(newReverseClient(t, "ws://127.0.0.1:1/universal"))
	manager.CloseAll()
	assert.Empty(t, manager.GetAllClients())
}

func TestClient_ConnectsAndSendsLifecycle(t *testing.T) {
	conf := &config.WS{Host: "127.0.0.1", HeartbeatInterval: 60000}
	server := NewForwardServer(conf, testUin)

	received := make(chan string, 4)
	server.OnMessageReceived = func(message string, id uuid.UUID) {
		received <- message
	}
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)

	client := newReverseClient(t, wsURL(server, "/universal"))
	go client.Connect()
	t.Cleanup(client.Close)

	// 反向客户端上线后立即推送生命周期事件
	select {
	case message := <-received:
		assert.True(t, strings.Contains(message, `"meta_event_type":"lifecycle"`))
		assert.True(t, strings.Contains(message, `"sub_type":"connect"`))
	case <-time.After(3 * time.Second):
		t.Fatal("未收到生命周期事件")
	}
}
