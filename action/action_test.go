package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LagrangeGo/bot"
	"LagrangeGo/protocol"
	"LagrangeGo/utils"
)

func newTestBot(t *testing.T) *bot.Bot {
	t.Helper()
	store, err := utils.NewMessageStore(utils.DefaultOptions)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return bot.New(10000, "测试机器人", store)
}

func TestDispatch_GetLoginInfo(t *testing.T) {
	b := newTestBot(t)

	resp := Dispatch(b, `{"action":"get_login_info","echo":"e1"}`)
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.RetCode)
	assert.Equal(t, "e1", resp.Echo)

	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 10000, data["user_id"])
	assert.Equal(t, "测试机器人", data["nickname"])
}

func TestDispatch_GetStatus(t *testing.T) {
	b := newTestBot(t)

	resp := Dispatch(b, `{"action":"get_status"}`)
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["online"])
	assert.Equal(t, true, data["good"])
}

func TestDispatch_GetVersionInfo(t *testing.T) {
	b := newTestBot(t)

	resp := Dispatch(b, `{"action":"get_version_info"}`)
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "LagrangeGo", data["app_name"])
	assert.Equal(t, "v11", data["protocol_version"])
}

func TestDispatch_UnknownAction(t *testing.T) {
	b := newTestBot(t)

	resp := Dispatch(b, `{"action":"_get_group_notice","echo":7}`)
	assert.Equal(t, "failed", resp.Status)
	assert.Equal(t, 1404, resp.RetCode)
	assert.EqualValues(t, 7, resp.Echo)
}

func TestDispatch_MalformedPayload(t *testing.T) {
	b := newTestBot(t)

	resp := Dispatch(b, `{"action":`)
	assert.Equal(t, "failed", resp.Status)
	assert.Equal(t, 1400, resp.RetCode)
}

func TestDispatch_SendGroupMsg(t *testing.T) {
	b := newTestBot(t)

	resp := Dispatch(b, `{"action":"send_group_msg","params":{"group_id":42,"message":"你好"}}`)
	require.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	id := data["message_id"].(int32)
	assert.Greater(t, id, int32(0))

	// 下行消息进入协议层通道
	select {
	case outbound := <-protocol.OutboundChan:
		assert.Equal(t, "group", outbound.Kind)
		assert.EqualValues(t, 42, outbound.TargetId)
		assert.Equal(t, "你好", outbound.Content)
		assert.Equal(t, id, outbound.MessageId)
	default:
		t.Fatal("协议层未收到下行消息")
	}

	// 发出的消息可按 id 查询
	getResp := Dispatch(b, `{"action":"get_msg","params":{"message_id":`+jsonInt(id)+`}}`)
	require.Equal(t, "ok", getResp.Status)
	record := getResp.Data.(map[string]any)
	assert.Equal(t, "你好", record["raw_message"])
	assert.Equal(t, "group", record["message_type"])
}

func TestDispatch_SendGroupMsg_SegmentArray(t *testing.T) {
	b := newTestBot(t)

	payload := `{"action":"send_group_msg","params":{"group_id":42,` +
		`"message":[{"type":"text","data":{"text":"hi "}},{"type":"at","data":{"qq":"123"}}]}}`
	resp := Dispatch(b, payload)
	require.Equal(t, "ok", resp.Status)

	outbound := <-protocol.OutboundChan
	assert.Equal(t, "hi [CQ:at,qq=123]", outbound.Content)
}

func TestDispatch_SendPrivateMsg_MissingUserId(t *testing.T) {
	b := newTestBot(t)

	resp := Dispatch(b, `{"action":"send_private_msg","params":{"message":"hi"}}`)
	assert.Equal(t, "failed", resp.Status)
	assert.Equal(t, 100, resp.RetCode)
}

func TestDispatch_SendMsg_RoutesByType(t *testing.T) {
	b := newTestBot(t)

	resp := Dispatch(b, `{"action":"send_msg","params":{"message_type":"private","user_id":7,"message":"hi"}}`)
	require.Equal(t, "ok", resp.Status)
	outbound := <-protocol.OutboundChan
	assert.Equal(t, "private", outbound.Kind)

	resp = Dispatch(b, `{"action":"send_msg","params":{"group_id":9,"message":"hi"}}`)
	require.Equal(t, "ok", resp.Status)
	outbound = <-protocol.OutboundChan
	assert.Equal(t, "group", outbound.Kind)
}

func TestDispatch_GetMsg_NotFound(t *testing.T) {
	b := newTestBot(t)

	resp := Dispatch(b, `{"action":"get_msg","params":{"message_id":9999}}`)
	assert.Equal(t, "failed", resp.Status)
	assert.Equal(t, 100, resp.RetCode)
}

func jsonInt(v int32) string {
	data, _ := json.Marshal(v)
	return string(data)
}
