package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"LagrangeGo/config"
	"LagrangeGo/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ForwardServer 正向 WebSocket 服务，供外部 OneBot 客户端接入
type ForwardServer struct {
	conf   *config.WS
	selfId int64

	listener net.Listener
	server   *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// OnMessageReceived 收到文本消息时回调，由上层绑定到 API 分发器
	OnMessageReceived func(message string, id uuid.UUID)

	sessionRegistry
}

func NewForwardServer(conf *config.WS, selfId int64) *ForwardServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &ForwardServer{
		conf:   conf,
		selfId: selfId,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start 绑定监听地址并启动接受循环
func (s *ForwardServer) Start() error {
	host := s.conf.Host
	if host == "0.0.0.0" {
		// 通配地址
		host = ""
	}
	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(s.conf.Port)))
	if err != nil {
		return fmt.Errorf("正向 WebSocket 监听失败: %v", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	s.server = &http.Server{Handler: mux}

	logger.Infof("正向 WebSocket 服务已启动: %v", listener.Addr())
	go func() {
		defer close(s.done)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// 接受循环不自愈，退出后本服务不再接受新连接
			logger.Errorf("正向 WebSocket 接受循环退出: %v", err)
		}
	}()
	return nil
}

// Stop 取消所有会话，关闭监听器并等待接受循环退出
func (s *ForwardServer) Stop() {
	s.cancel()
	_ = s.server.Close()
	<-s.done
	logger.Infof("正向 WebSocket 服务已停止: %v", s.listener.Addr())
}

// Addr 实际监听地址
func (s *ForwardServer) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *ForwardServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	id := uuid.New()

	if !s.checkAccessToken(r) {
		logger.Warnf("已拒绝 %v 的连接请求: 鉴权失败", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if !websocket.IsWebSocketUpgrade(r) {
		logger.Warnf("已拒绝 %v 的连接请求: 非 WebSocket 升级请求", r.RemoteAddr)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 失败时 gorilla 已写入错误响应
		logger.Errorf("连接 %v 升级失败: %v", id, err)
		return
	}

	pathClass := classifyPath(r.URL.Path)
	ctx, cancel := context.WithCancel(s.ctx)
	session := &Session{
		ID:        id,
		Conn:      conn,
		PathClass: pathClass,
		CreatedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.sessions.Store(id, session)
	logger.Infof("接受 WebSocket 连接: %v (%s, %v)", r.RemoteAddr, pathClass, id)

	// 会话取消时下发正常关闭帧，并关闭连接以唤醒阻塞中的读操作
	go func() {
		<-ctx.Done()
		s.Disconnect(id, websocket.CloseNormalClosure)
		_ = conn.Close()
	}()

	if pathClass != PathApi {
		go s.heartbeatLoop(session)
	}
	if pathClass == PathEvent {
		go s.closeWaitLoop(session)
	} else {
		go s.receiveLoop(session)
	}
}

func (s *ForwardServer) checkAccessToken(r *http.Request) bool {
	token := s.conf.AccessToken
	if token == "" {
		return true
	}

	var candidate string
	if auth := r.Header.Get("Authorization"); auth != "" {
		// Authorization 存在但非 Bearer 形式时直接拒绝
		if !strings.HasPrefix(auth, "Bearer ") {
			return false
		}
		candidate = strings.TrimPrefix(auth, "Bearer ")
	} else {
		candidate = r.URL.Query().Get("access_token")
	}
	return candidate == token
}

func classifyPath(path string) PathClass {
	switch strings.TrimSuffix(path, "/") {
	case "/api":
		return PathApi
	case "/event":
		return PathEvent
	default:
		return PathUniversal
	}
}
