package onebot

import (
	"fmt"
	"strings"
	"time"
)

type PostType string

const (
	MessagePost   PostType = "message"
	NoticePost    PostType = "notice"
	RequestPost   PostType = "request"
	MetaEventPost PostType = "meta_event"
)

// MessageBase 定义上报消息的公共头
type MessageBase struct {
	Time     int64    `json:"time"`
	SelfId   int64    `json:"self_id"`
	PostType PostType `json:"post_type"`
}

type SubType string

const (
	Enable  SubType = "enable"
	Disable SubType = "disable"
	Connect SubType = "connect"
	Friend  SubType = "friend"
	Group   SubType = "group"
	Normal  SubType = "normal"
	Other   SubType = "other"
)

type MetaEventType string

const (
	LifecycleType MetaEventType = "lifecycle"
	HeartbeatType MetaEventType = "heartbeat"
)

// LifeCycle 生命周期元事件，连接建立后立即下发
type LifeCycle struct {
	MessageBase
	MetaEventType MetaEventType `json:"meta_event_type"`
	SubType       SubType       `json:"sub_type"`
}

// NewLifeCycleConnect 构造 sub_type 为 connect 的生命周期事件
func NewLifeCycleConnect(selfId int64) *LifeCycle {
	return &LifeCycle{
		MessageBase: MessageBase{
			Time:     time.Now().Unix(),
			SelfId:   selfId,
			PostType: MetaEventPost,
		},
		MetaEventType: LifecycleType,
		SubType:       Connect,
	}
}

type Status struct {
	Online bool `json:"online"`
	Good   bool `json:"good"`
}

// Heartbeat 心跳元事件
type Heartbeat struct {
	MessageBase
	MetaEventType MetaEventType `json:"meta_event_type"`
	Interval      int64         `json:"interval"`
	Status        Status        `json:"status"`
}

// NewHeartbeat 构造心跳事件，interval 单位毫秒
func NewHeartbeat(selfId int64, interval int64) *Heartbeat {
	return &Heartbeat{
		MessageBase: MessageBase{
			Time:     time.Now().Unix(),
			SelfId:   selfId,
			PostType: MetaEventPost,
		},
		MetaEventType: HeartbeatType,
		Interval:      interval,
		Status: Status{
			Online: true,
			Good:   true,
		},
	}
}

type MessageType string

const (
	PrivateMessage MessageType = "private"
	GroupMessage   MessageType = "group"
)

type Sender struct {
	UserId   int64  `json:"user_id,omitempty"`
	NickName string `json:"nickname,omitempty"`
	Card     string `json:"card,omitempty"`
	Role     string `json:"role,omitempty"`
}

// MessageEvent 消息事件上报
type MessageEvent struct {
	MessageBase
	MessageType MessageType `json:"message_type"`
	SubType     SubType     `json:"sub_type"`
	MessageId   int32       `json:"message_id"`
	GroupId     int64       `json:"group_id,omitempty"`
	UserId      int64       `json:"user_id"`
	Message     []*Element  `json:"message"`
	RawMessage  string      `json:"raw_message"`
	Font        int32       `json:"font"`
	Sender      Sender      `json:"sender"`
}

type ElementType string

const (
	TextType  ElementType = "text"
	FaceType  ElementType = "face"
	ImageType ElementType = "image"
	AtType    ElementType = "at"
	ReplyType ElementType = "reply"
)

// Element 单个消息段
type Element struct {
	ElementType ElementType `json:"type"`
	Data        any         `json:"data"`
}

// CQEscape 转义 CQ 码中的特殊字符
func CQEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "[", "&#91;")
	s = strings.ReplaceAll(s, "]", "&#93;")
	s = strings.ReplaceAll(s, ",", "&#44;")
	return s
}

// CQUnescape 反转义 CQ 码中的特殊字符
func CQUnescape(s string) string {
	s = strings.ReplaceAll(s, "&#44;", ",")
	s = strings.ReplaceAll(s, "&#93;", "]")
	s = strings.ReplaceAll(s, "&#91;", "[")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return s
}

type Text struct {
	Text string `json:"text"`
}

func (f Text) String() string {
	return CQEscape(f.Text)
}

type Face struct {
	Id string `json:"id,omitempty"`
}

func (f Face) String() string {
	return fmt.Sprintf("[CQ:face,id=%s]", f.Id)
}

type Image struct {
	File string `json:"file,omitempty"`
	Url  string `json:"url,omitempty"`
}

func (f Image) String() string {
	return fmt.Sprintf("[CQ:image,file=%s,url=%s]", CQEscape(f.File), CQEscape(f.Url))
}

type At struct {
	Uid string `json:"qq,omitempty"`
}

func (f At) String() string {
	return fmt.Sprintf("[CQ:at,qq=%s]", f.Uid)
}

type Reply struct {
	Id string `json:"id,omitempty"`
}

func (f Reply) String() string {
	return fmt.Sprintf("[CQ:reply,id=%s]", f.Id)
}
