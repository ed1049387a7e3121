package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	https_server "PulseLink/api/http"
	"PulseLink/internal/config"
	"PulseLink/internal/modules/delivery/infrastructure/mq/kafka"
	"PulseLink/pkg/zlog"
)

func main() {
	// 1. 加载配置与日志
	conf := config.GetConfig()
	zlog.Init(conf.LogConfig.LogPath)
	defer zlog.Sync()

	// 2. 确保 Kafka 主题存在
	if len(conf.KafkaConfig.Brokers) > 0 {
		adminCfg := kafka.TopicAdminConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			ClientID: conf.KafkaConfig.ClientID,
		}
		for _, topic := range []string{conf.KafkaConfig.EventFeedTopic, conf.KafkaConfig.DeliveryRequestTopic} {
			if topic == "" {
				continue
			}
			if err := kafka.EnsureTopic(adminCfg, topic, conf.KafkaConfig.Partitions, conf.KafkaConfig.Replication); err != nil {
				zlog.Fatal("Kafka 主题创建失败: " + err.Error())
			}
		}
	}

	// 3. 组装应用
	app, err := https_server.NewApp()
	if err != nil {
		zlog.Fatal("应用组装失败: " + err.Error())
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. 启动监督器事件循环并恢复启用账号的连接
	go app.Supervisor.Run(rootCtx)
	app.Supervisor.StartEnabledWorkers(rootCtx)

	// 5. 启动投递请求消费者
	if app.Consumer != nil {
		go func() {
			if err := app.Consumer.Run(rootCtx); err != nil && rootCtx.Err() == nil {
				zlog.Error("投递请求消费者退出: " + err.Error())
			}
		}()
	}

	// 6. 启动维护调度器
	app.Scheduler.Start()

	// 7. 启动 HTTP 服务
	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		zlog.Info(fmt.Sprintf("服务器正在启动，监听地址: %s", addr))
		// 目前使用 HTTP 启动。如果需要 HTTPS，请配置证书并使用 Engine.RunTLS
		if err := app.Engine.Run(addr); err != nil {
			zlog.Fatal("服务器启动失败: " + err.Error())
			return
		}
	}()

	// 8. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("正在关闭服务器...")
	cancel()
	app.Scheduler.Stop()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	app.Supervisor.StopAllWorkers(stopCtx)

	if app.Publisher != nil {
		_ = app.Publisher.Close()
	}

	zlog.Info("服务器已关闭")
}
