package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"LagrangeGo/internal/cqcode"
	"LagrangeGo/logger"
	"LagrangeGo/onebot"
	"LagrangeGo/protocol"
	"LagrangeGo/utils"
)

// Bot 上下文，连接协议层与 OneBot 通道层
type Bot struct {
	Uin      int64
	Nickname string

	store *utils.MessageStore

	mu      sync.RWMutex
	pushers []func(event any)
}

func New(uin int64, nickname string, store *utils.MessageStore) *Bot {
	return &Bot{
		Uin:      uin,
		Nickname: nickname,
		store:    store,
	}
}

// OnEventPush 注册事件推送回调，正向广播与反向客户端都经由此挂接
func (b *Bot) OnEventPush(fn func(event any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushers = append(b.pushers, fn)
}

// PushEvent 将事件推送给所有已注册的通道
func (b *Bot) PushEvent(event any) {
	b.mu.RLock()
	pushers := b.pushers
	b.mu.RUnlock()
	for _, fn := range pushers {
		fn(event)
	}
}

// Run 消费协议层下发事件，转换为 OneBot 事件并推送
func (b *Bot) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-protocol.ClientChan:
			b.handleEvent(event)
		}
	}
}

func (b *Bot) handleEvent(event *protocol.Event) {
	if event.Time == 0 {
		event.Time = time.Now().Unix()
	}

	record := &utils.MessageRecord{
		Kind:     event.Kind,
		PeerId:   event.GroupId,
		SenderId: event.UserId,
		Content:  event.Content,
		Time:     event.Time,
	}
	if event.Kind == "private" {
		record.PeerId = event.UserId
	}
	id, err := b.store.Insert(record)
	if err != nil {
		logger.Warnf("消息入库失败: %v", err)
	}

	msg := &onebot.MessageEvent{
		MessageBase: onebot.MessageBase{
			Time:     event.Time,
			SelfId:   b.Uin,
			PostType: onebot.MessagePost,
		},
		MessageType: onebot.MessageType(event.Kind),
		SubType:     onebot.Normal,
		MessageId:   id,
		GroupId:     event.GroupId,
		UserId:      event.UserId,
		Message:     cqcode.ParseAll(event.Content),
		RawMessage:  event.Content,
		Sender: onebot.Sender{
			UserId:   event.UserId,
			NickName: event.NickName,
		},
	}
	if event.Kind == "private" {
		msg.SubType = onebot.Friend
	}

	b.PushEvent(msg)
}

// SendPrivateMessage 发送私聊消息，返回分配的消息 id
func (b *Bot) SendPrivateMessage(userId int64, content string) (int32, error) {
	return b.send("private", userId, content)
}

// SendGroupMessage 发送群消息，返回分配的消息 id
func (b *Bot) SendGroupMessage(groupId int64, content string) (int32, error) {
	return b.send("group", groupId, content)
}

func (b *Bot) send(kind string, targetId int64, content string) (int32, error) {
	id, err := b.store.Insert(&utils.MessageRecord{
		Kind:     kind,
		PeerId:   targetId,
		SenderId: b.Uin,
		Content:  content,
	})
	if err != nil {
		return 0, err
	}

	outbound := &protocol.Outbound{
		Kind:      kind,
		TargetId:  targetId,
		Content:   content,
		MessageId: id,
	}
	select {
	case protocol.OutboundChan <- outbound:
	default:
		return 0, fmt.Errorf("发送通道已满")
	}
	return id, nil
}

// GetMessage 按消息 id 查询记录
func (b *Bot) GetMessage(id int32) (*utils.MessageRecord, error) {
	return b.store.Get(id)
}
