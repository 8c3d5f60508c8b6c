package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"LagrangeGo/action"
	"LagrangeGo/bot"
	"LagrangeGo/config"
	"LagrangeGo/constant"
	"LagrangeGo/internal"
	"LagrangeGo/logger"
	"LagrangeGo/utils"
	"LagrangeGo/websocket"
)

// initLogger 初始化日志系统
func initLogger(config *config.Config) {
	logger.Init(logger.LogConfig{
		Level:     config.Logging.Level,
		FilePath:  config.Logging.FilePath,
		AddSource: config.Logging.AddSource,
		JSON:      config.Logging.JSON,
	})
}

func displayBanner() {
	fmt.Println("██       █████   ██████  ██████   █████  ███    ██  ██████  ███████")
	fmt.Println("██      ██   ██ ██      ██   ██ ██   ██ ████   ██ ██       ██      ")
	fmt.Println("██      ███████ ██  ███ ██████  ███████ ██ ██  ██ ██  ███  █████   ")
	fmt.Println("██      ██   ██ ██   ██ ██   ██ ██   ██ ██  ██ ██ ██   ██  ██      ")
	fmt.Println("███████ ██   ██  ██████ ██   ██ ██   ██ ██   ████  ██████  ███████ ")
	fmt.Println("                                                                   ")
	fmt.Println(fmt.Sprintf("Project Version: %v", internal.Version))
}

func main() {
	displayBanner()
	// 加载配置
	if err := config.LoadConfig("config.yml"); err != nil {
		fmt.Println(err)
		return
	}
	constant.Configuration = config.GetConfig()
	configuration := constant.Configuration

	// 初始化日志
	initLogger(configuration)

	// 初始化消息存储
	if err := utils.SqLiteInit(configuration.Database.Path); err != nil {
		logger.Errorf("初始化消息存储失败: %v", err)
		return
	}
	defer utils.Store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bot.New(configuration.Account.Uin, configuration.Account.Nickname, utils.Store)
	go b.Run(ctx)

	var servers []*websocket.ForwardServer
	for _, channel := range configuration.Channels {
		if channel.WS != nil {
			// 正向 WebSocket
			server := websocket.NewForwardServer(channel.WS, b.Uin)
			server.OnMessageReceived = func(message string, id uuid.UUID) {
				go func() {
					resp := action.Dispatch(b, message)
					if err := server.SendJSONTo(resp, id); err != nil {
						logger.Warnf("API 响应下发失败: %v", err)
					}
				}()
			}
			if err := server.Start(); err != nil {
				logger.Errorf("正向 WebSocket 启动失败: %v", err)
				return
			}
			b.OnEventPush(func(event any) {
				if err := server.SendJSON(event); err != nil {
					logger.Warnf("事件广播失败: %v", err)
				}
			})
			servers = append(servers, server)
		}
		if channel.WSReverse != nil {
			// 反向 WebSocket
			client := websocket.NewWebSocketClient(channel.WSReverse, b)
			websocket.Manager.AddClient(client)
			b.OnEventPush(client.PushEvent)
		}
	}
	websocket.Manager.StartAll()

	logger.Infof("当前账号: %v", configuration.Account.Uin)
	logger.Infof("日志级别: %s", configuration.Logging.Level)

	<-ctx.Done()
	logger.Info("收到退出信号，正在关闭服务")
	for _, server := range servers {
		server.Stop()
	}
	websocket.Manager.CloseAll()
}
