package action

import (
	"encoding/json"

	"LagrangeGo/bot"
	"LagrangeGo/logger"
)

// Request OneBot API 请求帧
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
	Echo   any             `json:"echo,omitempty"`
}

// Response OneBot API 响应帧
type Response struct {
	Status  string `json:"status"`
	RetCode int    `json:"retcode"`
	Data    any    `json:"data"`
	Echo    any    `json:"echo,omitempty"`
}

// Handler 单个 API 处理函数
type Handler func(b *bot.Bot, params json.RawMessage) (any, error)

var handlers = make(map[string]Handler)

// Register 注册 API 处理函数
func Register(name string, h Handler) {
	handlers[name] = h
}

func ok(data any, echo any) *Response {
	return &Response{Status: "ok", RetCode: 0, Data: data, Echo: echo}
}

func failed(retCode int, echo any) *Response {
	return &Response{Status: "failed", RetCode: retCode, Echo: echo}
}

// Dispatch 解析 API 请求并路由到对应处理函数
func Dispatch(b *bot.Bot, payload string) *Response {
	var req Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		logger.Warnf("无法解析 API 请求: %v", err)
		return failed(1400, nil)
	}

	h, exists := handlers[req.Action]
	if !exists {
		logger.Warnf("未知的 API: %s", req.Action)
		return failed(1404, req.Echo)
	}

	data, err := h(b, req.Params)
	if err != nil {
		logger.Warnf("API %s 调用失败: %v", req.Action, err)
		return failed(100, req.Echo)
	}
	return ok(data, req.Echo)
}
