package protocol

import "context"

// Event 协议层上行事件，由具体平台适配器填充
type Event struct {
	Kind     string // "private" 或 "group"
	GroupId  int64
	UserId   int64
	NickName string
	Content  string
	Time     int64
}

// Outbound OneBot 层下行消息
type Outbound struct {
	Kind      string
	TargetId  int64
	Content   string
	MessageId int32
}

// ClientChan 协议层下发事件通道
var ClientChan chan *Event = make(chan *Event, 100)

// OutboundChan 发送给协议层的消息通道
var OutboundChan chan *Outbound = make(chan *Outbound, 100)

// Protocol 平台协议适配器，负责登录保活与消息收发
type Protocol interface {
	Start(ctx context.Context) error
	Stop()
}
