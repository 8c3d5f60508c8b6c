package action

import (
	"encoding/json"
	"fmt"
	"strings"

	"LagrangeGo/bot"
	"LagrangeGo/internal"
	"LagrangeGo/internal/cqcode"
	"LagrangeGo/onebot"
)

func init() {
	Register("get_login_info", getLoginInfo)
	Register("get_status", getStatus)
	Register("get_version_info", getVersionInfo)
	Register("send_private_msg", sendPrivateMsg)
	Register("send_group_msg", sendGroupMsg)
	Register("send_msg", sendMsg)
	Register("get_msg", getMsg)
	Register("can_send_image", canSend)
	Register("can_send_record", canSend)
}

// messageToString 兼容字符串与消息段数组两种 message 形式
func messageToString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var segments []struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	if json.Unmarshal(raw, &segments) == nil {
		var sb strings.Builder
		for _, segment := range segments {
			sb.WriteString(cqcode.Format(segment.Type, segment.Data))
		}
		return sb.String()
	}
	return string(raw)
}

func getLoginInfo(b *bot.Bot, _ json.RawMessage) (any, error) {
	return map[string]any{
		"user_id":  b.Uin,
		"nickname": b.Nickname,
	}, nil
}

func getStatus(_ *bot.Bot, _ json.RawMessage) (any, error) {
	return map[string]any{
		"online": true,
		"good":   true,
	}, nil
}

func getVersionInfo(_ *bot.Bot, _ json.RawMessage) (any, error) {
	return map[string]any{
		"app_name":         "LagrangeGo",
		"app_version":      internal.Version,
		"protocol_version": "v11",
	}, nil
}

func canSend(_ *bot.Bot, _ json.RawMessage) (any, error) {
	return map[string]any{"yes": true}, nil
}

type sendMsgParams struct {
	MessageType string          `json:"message_type"`
	UserId      int64           `json:"user_id"`
	GroupId     int64           `json:"group_id"`
	Message     json.RawMessage `json:"message"`
}

func sendPrivateMsg(b *bot.Bot, params json.RawMessage) (any, error) {
	var p sendMsgParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if p.UserId == 0 {
		return nil, fmt.Errorf("缺少 user_id")
	}
	id, err := b.SendPrivateMessage(p.UserId, messageToString(p.Message))
	if err != nil {
		return nil, err
	}
	return map[string]any{"message_id": id}, nil
}

func sendGroupMsg(b *bot.Bot, params json.RawMessage) (any, error) {
	var p sendMsgParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	if p.GroupId == 0 {
		return nil, fmt.Errorf("缺少 group_id")
	}
	id, err := b.SendGroupMessage(p.GroupId, messageToString(p.Message))
	if err != nil {
		return nil, err
	}
	return map[string]any{"message_id": id}, nil
}

func sendMsg(b *bot.Bot, params json.RawMessage) (any, error) {
	var p sendMsgParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	switch {
	case p.MessageType == string(onebot.GroupMessage), p.MessageType == "" && p.GroupId != 0:
		return sendGroupMsg(b, params)
	default:
		return sendPrivateMsg(b, params)
	}
}

type getMsgParams struct {
	MessageId int32 `json:"message_id"`
}

func getMsg(b *bot.Bot, params json.RawMessage) (any, error) {
	var p getMsgParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	record, err := b.GetMessage(p.MessageId)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"time":         record.Time,
		"message_type": record.Kind,
		"message_id":   record.Id,
		"real_id":      record.Id,
		"sender": onebot.Sender{
			UserId: record.SenderId,
		},
		"message":     cqcode.ParseAll(record.Content),
		"raw_message": record.Content,
	}, nil
}
