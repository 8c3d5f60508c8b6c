package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"LagrangeGo/logger"
	"LagrangeGo/onebot"
)

// PathClass 由升级请求路径决定的会话类别
type PathClass string

const (
	PathApi       PathClass = "api"
	PathEvent     PathClass = "event"
	PathUniversal PathClass = "universal"
)

// Session 一条已升级的 WebSocket 连接及其取消域
type Session struct {
	ID        uuid.UUID
	Conn      *websocket.Conn
	PathClass PathClass
	CreatedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// sessionRegistry 会话注册表与全服务发送锁
type sessionRegistry struct {
	sessions sync.Map // uuid.UUID -> *Session
	sendMu   sync.Mutex
}

// SessionCount 注册表中的会话数
func (s *ForwardServer) SessionCount() int {
	count := 0
	s.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// receiveLoop 读取 api 与 universal 会话的文本消息并发布给订阅方
func (s *ForwardServer) receiveLoop(session *Session) {
	defer session.cancel()

	buf := make([]byte, 1024)
	for {
		if session.ctx.Err() != nil {
			s.Disconnect(session.ID, websocket.CloseNormalClosure)
			return
		}

		msgType, reader, err := session.Conn.NextReader()
		if err != nil {
			s.handleReadError(session, err)
			return
		}

		n := 0
		for {
			if n == len(buf) {
				grown := make([]byte, len(buf)*2)
				copy(grown, buf)
				buf = grown
			}
			m, err := reader.Read(buf[n:])
			n += m
			if err == io.EOF {
				break
			}
			if err != nil {
				s.handleReadError(session, err)
				return
			}
		}

		if msgType != websocket.TextMessage {
			continue
		}
		message := string(buf[:n])
		logger.Debugf("收到 WebSocket 消息: %v %s", session.ID, truncatePayload(message))
		if s.OnMessageReceived != nil {
			s.OnMessageReceived(message, session.ID)
		}
	}
}

// closeWaitLoop 事件会话只等待关闭帧，丢弃一切入站数据
func (s *ForwardServer) closeWaitLoop(session *Session) {
	defer session.cancel()

	for {
		if session.ctx.Err() != nil {
			s.Disconnect(session.ID, websocket.CloseNormalClosure)
			return
		}

		_, reader, err := session.Conn.NextReader()
		if err != nil {
			s.handleReadError(session, err)
			return
		}
		if _, err = io.Copy(io.Discard, reader); err != nil {
			s.handleReadError(session, err)
			return
		}
	}
}

func (s *ForwardServer) handleReadError(session *Session, err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		s.Disconnect(session.ID, websocket.CloseNormalClosure)
		return
	}
	if session.ctx.Err() != nil {
		s.Disconnect(session.ID, websocket.CloseNormalClosure)
		return
	}
	logger.Errorf("会话 %v 读取异常: %v", session.ID, err)
	s.Disconnect(session.ID, websocket.CloseInternalServerErr)
}

// heartbeatLoop 非 api 会话先下发生命周期事件，此后按配置间隔下发心跳。
// 下次休眠时长扣除本次发送耗时，保持心跳相位与真实时间对齐。
func (s *ForwardServer) heartbeatLoop(session *Session) {
	defer session.cancel()

	if err := s.SendJSONTo(onebot.NewLifeCycleConnect(s.selfId), session.ID); err != nil {
		logger.Errorf("会话 %v 下发生命周期事件失败: %v", session.ID, err)
		s.Disconnect(session.ID, websocket.CloseInternalServerErr)
		return
	}

	interval := time.Duration(s.conf.HeartbeatInterval) * time.Millisecond
	delay := interval
	for {
		select {
		case <-session.ctx.Done():
			s.Disconnect(session.ID, websocket.CloseNormalClosure)
			return
		case <-time.After(delay):
		}

		start := time.Now()
		if err := s.SendJSONTo(onebot.NewHeartbeat(s.selfId, s.conf.HeartbeatInterval), session.ID); err != nil {
			logger.Errorf("会话 %v 下发心跳失败: %v", session.ID, err)
			s.Disconnect(session.ID, websocket.CloseInternalServerErr)
			return
		}
		delay = interval - time.Since(start)
		if delay < 0 {
			delay = 0
		}
	}
}

// SendJSON 序列化后广播到所有非 api 会话，等待全部写入完成
func (s *ForwardServer) SendJSON(value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	s.sessions.Range(func(_, v any) bool {
		session := v.(*Session)
		if session.PathClass == PathApi {
			return true
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.sendBytes(payload, session.ID); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
		return true
	})
	wg.Wait()
	return errors.Join(errs...)
}

// SendJSONTo 序列化后发送到指定会话
func (s *ForwardServer) SendJSONTo(value any, id uuid.UUID) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.sendBytes(payload, id)
}

// sendBytes 全服务串行化的单帧写入，目标会话不存在时静默返回
func (s *ForwardServer) sendBytes(payload []byte, id uuid.UUID) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	v, exists := s.sessions.Load(id)
	if !exists {
		return nil
	}
	session := v.(*Session)
	logger.Debugf("发送 WebSocket 消息: %v %s", id, truncatePayload(string(payload)))
	_ = session.Conn.SetWriteDeadline(time.Now().Add(15 * time.Second))
	return session.Conn.WriteMessage(websocket.TextMessage, payload)
}

// Disconnect 将会话移出注册表并下发关闭帧。并发调用只有第一次取到表项生效，
// 先移除后关闭保证发送方不再看到该会话。
func (s *ForwardServer) Disconnect(id uuid.UUID, code int) {
	v, exists := s.sessions.LoadAndDelete(id)
	if !exists {
		return
	}
	session := v.(*Session)
	defer logger.Infof("连接断开: %v", id)

	msg := websocket.FormatCloseMessage(code, "")
	if err := session.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(5*time.Second)); err != nil {
		logger.Debugf("会话 %v 关闭帧下发失败: %v", id, err)
	}
	_ = session.Conn.Close()
}

// truncatePayload 截断超长日志载荷
func truncatePayload(payload string) string {
	const limit = 1024
	if len(payload) <= limit {
		return payload
	}
	return fmt.Sprintf("%s...%d bytes", payload[:limit], len(payload))
}
