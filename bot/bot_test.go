package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LagrangeGo/onebot"
	"LagrangeGo/protocol"
	"LagrangeGo/utils"
)

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	store, err := utils.NewMessageStore(utils.DefaultOptions)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(10000, "测试机器人", store)
}

func TestBot_EventTranslation(t *testing.T) {
	b := newTestBot(t)

	events := make(chan any, 1)
	b.OnEventPush(func(event any) {
		events <- event
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	protocol.ClientChan <- &protocol.Event{
		Kind:     "group",
		GroupId:  42,
		UserId:   7,
		NickName: "小明",
		Content:  "你好[CQ:at,qq=10000]",
	}

	select {
	case event := <-events:
		msg, ok := event.(*onebot.MessageEvent)
		require.True(t, ok)
		assert.Equal(t, onebot.MessagePost, msg.PostType)
		assert.Equal(t, onebot.GroupMessage, msg.MessageType)
		assert.EqualValues(t, 42, msg.GroupId)
		assert.EqualValues(t, 7, msg.UserId)
		assert.EqualValues(t, 10000, msg.SelfId)
		assert.Equal(t, "你好[CQ:at,qq=10000]", msg.RawMessage)
		assert.Greater(t, msg.MessageId, int32(0))
		require.Len(t, msg.Message, 2)

		// 上报的消息可按 id 查询
		record, err := b.GetMessage(msg.MessageId)
		require.NoError(t, err)
		assert.Equal(t, msg.RawMessage, record.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("事件未送达")
	}
}

func TestBot_SendAllocatesIds(t *testing.T) {
	b := newTestBot(t)

	first, err := b.SendGroupMessage(42, "一")
	require.NoError(t, err)
	second, err := b.SendPrivateMessage(7, "二")
	require.NoError(t, err)
	assert.Greater(t, second, first)

	// 排空下行通道
	for i := 0; i < 2; i++ {
		select {
		case <-protocol.OutboundChan:
		default:
			t.Fatal("协议层未收到下行消息")
		}
	}

	record, err := b.GetMessage(first)
	require.NoError(t, err)
	assert.Equal(t, "group", record.Kind)
	assert.EqualValues(t, 42, record.PeerId)
	assert.EqualValues(t, 10000, record.SenderId)
}

func TestBot_PushEventFanOut(t *testing.T) {
	b := newTestBot(t)

	received := 0
	b.OnEventPush(func(any) { received++ })
	b.OnEventPush(func(any) { received++ })
	b.PushEvent(struct{}{})
	assert.Equal(t, 2, received)
}
