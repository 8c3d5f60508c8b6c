package websocket

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	logging "github.com/sacOO7/go-logger"
	"github.com/sacOO7/gowebsocket"

	"LagrangeGo/action"
	"LagrangeGo/bot"
	"LagrangeGo/config"
	"LagrangeGo/logger"
	"LagrangeGo/onebot"
)

// Client 表示一个反向 WebSocket 客户端连接
type Client struct {
	ID            string
	URL           string
	Conn          gowebsocket.Socket
	mu            sync.Mutex
	Connected     bool
	Reconnect     bool
	MaxRetries    int
	RetryCount    int
	XClientRole   string
	Authorization string
	Interval      int64
	RetryDelay    int64

	bot *bot.Bot
}

// ClientManager 管理多个反向 WebSocket 客户端连接
type ClientManager struct {
	clients map[string]*Client
	mu      sync.RWMutex
}

var (
	Manager *ClientManager
)

func init() {
	Manager = &ClientManager{
		clients: make(map[string]*Client),
	}
}

// NewWebSocketClient 创建新的反向 WebSocket 客户端
func NewWebSocketClient(conf *config.WSReverse, b *bot.Bot) *Client {
	return &Client{
		ID:            uuid.NewString(),
		URL:           conf.Universal,
		Connected:     false,
		Reconnect:     true,
		MaxRetries:    conf.MaxRetries,
		RetryCount:    0,
		XClientRole:   "Universal",
		Authorization: conf.Authorization,
		Interval:      conf.HeartbeatInterval,
		RetryDelay:    conf.ReconnectInterval,
		bot:           b,
	}
}

// Connect 连接到反向 WebSocket 服务器，断开后按配置间隔重连
func (c *Client) Connect() {
	for {
		if c.MaxRetries > 0 && c.RetryCount >= c.MaxRetries {
			logger.Warnf("达到最大重试次数 (%d)，停止连接: %s", c.MaxRetries, c.URL)
			return
		}
		c.RetryCount++

		logger.Infof("尝试连接到: %s", c.URL)

		u, err := url.Parse(c.URL)
		if err != nil {
			logger.Warnf("URL 解析错误: %v", err)
			return
		}
		header := http.Header{}
		header.Set("X-Self-ID", strconv.FormatInt(c.bot.Uin, 10))
		header.Set("X-Client-Role", c.XClientRole)
		if c.Authorization != "" {
			header.Set("Authorization", "Bearer "+c.Authorization)
		}

		exit := make(chan struct{}, 1)
		notifyExit := func() {
			select {
			case exit <- struct{}{}:
			default:
			}
		}

		c.Conn = gowebsocket.New(u.String())
		c.Conn.RequestHeader = header
		c.Conn.WebsocketDialer.WriteBufferSize = 8192
		c.Conn.WebsocketDialer.ReadBufferSize = 8192
		c.Conn.GetLogger().SetLevel(logging.OFF)

		c.Conn.OnConnected = func(socket gowebsocket.Socket) {
			c.mu.Lock()
			c.Connected = true
			c.RetryCount = 0
			c.mu.Unlock()
			logger.Infof("已连接 %v", u.String())
		}
		c.Conn.OnConnectError = func(err error, socket gowebsocket.Socket) {
			logger.Errorf("反向 WebSocket 连接失败: %v", err)
			notifyExit()
		}
		c.Conn.OnTextMessage = func(message string, socket gowebsocket.Socket) {
			go c.handleMessage(message)
		}
		c.Conn.OnDisconnected = func(err error, socket gowebsocket.Socket) {
			c.mu.Lock()
			c.Connected = false
			c.mu.Unlock()
			notifyExit()
		}

		c.Conn.Connect()

		if c.connected() {
			c.lifeCycle()
			c.heartbeatLoop(exit)
		}

		if !c.Reconnect {
			return
		}
		time.Sleep(time.Duration(c.RetryDelay) * time.Millisecond)
	}
}

// heartbeatLoop 心跳相位对齐：下次休眠时长扣除本次发送耗时
func (c *Client) heartbeatLoop(exit <-chan struct{}) {
	interval := time.Duration(c.Interval) * time.Millisecond
	delay := interval
	for {
		select {
		case <-exit:
			return
		case <-time.After(delay):
		}
		if !c.connected() {
			return
		}

		start := time.Now()
		c.heartBeat()
		delay = interval - time.Since(start)
		if delay < 0 {
			delay = 0
		}
	}
}

func (c *Client) connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Connected
}

func (c *Client) lifeCycle() {
	msg, _ := json.Marshal(onebot.NewLifeCycleConnect(c.bot.Uin))
	c.send(string(msg))
}

func (c *Client) heartBeat() {
	msg, _ := json.Marshal(onebot.NewHeartbeat(c.bot.Uin, c.Interval))
	c.send(string(msg))
}

func (c *Client) send(data string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Connected {
		return
	}
	c.Conn.SendText(data)
}

// handleMessage 反向通道上行的 API 请求，分发后原路回包
func (c *Client) handleMessage(message string) {
	logger.Debugf("收到反向 WebSocket 消息: %s", truncatePayload(message))
	resp := action.Dispatch(c.bot, message)
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Warnf("序列化 API 响应失败: %v", err)
		return
	}
	c.send(string(data))
}

// PushEvent 推送事件到反向通道
func (c *Client) PushEvent(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Warnf("序列化事件失败: %v", err)
		return
	}
	c.send(string(data))
}

// Close 关闭连接并停止重连
func (c *Client) Close() {
	c.mu.Lock()
	c.Reconnect = false
	connected := c.Connected
	c.Connected = false
	c.mu.Unlock()

	// gowebsocket 的 Close 会同步调用 OnDisconnected（其中加锁），因此须在锁外调用
	if connected {
		c.Conn.Close()
	}
}

// AddClient 添加客户端到管理器
func (m *ClientManager) AddClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[client.ID] = client
}

// RemoveClient 从管理器移除客户端
func (m *ClientManager) RemoveClient(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if client, exists := m.clients[clientID]; exists {
		client.Close()
		delete(m.clients, clientID)
	}
}

// GetClient 获取指定客户端
func (m *ClientManager) GetClient(clientID string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, exists := m.clients[clientID]
	return client, exists
}

// GetAllClients 获取所有客户端
func (m *ClientManager) GetAllClients() []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	return clients
}

// StartAll 启动所有客户端
func (m *ClientManager) StartAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, client := range m.clients {
		go client.Connect()
	}
}

// CloseAll 关闭所有客户端连接
func (m *ClientManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, client := range m.clients {
		client.Close()
	}
	m.clients = make(map[string]*Client)
}
