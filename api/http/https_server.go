package http

import (
	"fmt"
	"time"

	"PulseLink/internal/config"
	"PulseLink/internal/initial"
	jwtMiddleware "PulseLink/internal/middleware/jwt"
	accountService "PulseLink/internal/modules/account/application/service"
	accountPersistence "PulseLink/internal/modules/account/infrastructure/persistence"
	accountHandler "PulseLink/internal/modules/account/interface/http"
	contentService "PulseLink/internal/modules/content/application/service"
	"PulseLink/internal/modules/content/infrastructure/search"
	deliveryService "PulseLink/internal/modules/delivery/application/service"
	"PulseLink/internal/modules/delivery/infrastructure/mq"
	"PulseLink/internal/modules/delivery/infrastructure/mq/kafka"
	deliveryPersistence "PulseLink/internal/modules/delivery/infrastructure/persistence"
	"PulseLink/internal/modules/delivery/infrastructure/queue"
	deliveryHandler "PulseLink/internal/modules/delivery/interface/http"
	presenceService "PulseLink/internal/modules/presence/application/service"
	"PulseLink/internal/modules/presence/infrastructure/cooldown"
	presenceGateway "PulseLink/internal/modules/presence/infrastructure/gateway"
	presenceHandler "PulseLink/internal/modules/presence/interface/http"
	"PulseLink/internal/modules/presence/interface/scheduler"
	"PulseLink/pkg/redis"
	"PulseLink/pkg/ssl"
	"PulseLink/pkg/ws"
	"PulseLink/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// App 聚合组装后的全部运行部件，生命周期由 main 统一管理
type App struct {
	Engine     *gin.Engine
	Hub        *ws.Hub
	Supervisor *presenceService.WorkerSupervisor
	Scheduler  *scheduler.MaintenanceManager

	Publisher mq.Publisher
	Consumer  *queue.RequestConsumerWorker
}

// NewApp 组装所有模块。监督器与投递服务互相依赖，先建监督器再补绑出口。
func NewApp() (*App, error) {
	conf := config.GetConfig()

	GE := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))

	wsHub := ws.NewHub()

	accountRepo := accountPersistence.NewAccountRepository(initial.GormDB)
	prefRepo := accountPersistence.NewPreferenceRepository(initial.GormDB)
	deliveryRepo := deliveryPersistence.NewDeliveryRepository(initial.GormDB)
	alertRepo := deliveryPersistence.NewAlertRepository(initial.GormDB)

	credSvc, err := accountService.NewCredentialService(conf.CryptoConfig.CredentialKey)
	if err != nil {
		return nil, fmt.Errorf("credential service: %w", err)
	}
	prefSvc := accountService.NewPreferenceService(prefRepo)
	accountSvc := accountService.NewAccountService(accountRepo, prefRepo, credSvc)

	// Redis 在线时冷却状态走 TTL 键，否则退回进程内存储
	var cooldownStore cooldown.Store
	if redis.IsConnected() {
		cooldownStore = cooldown.NewRedisStore()
	} else {
		cooldownStore = cooldown.NewMemoryStore()
	}
	gate := presenceService.NewTriggerGate(prefSvc, cooldownStore,
		time.Duration(conf.TriggerConfig.CooldownMinutes)*time.Minute)

	dialer := presenceGateway.NewWsDialer(conf.WorkerConfig.GatewayURL)
	supervisor := presenceService.NewWorkerSupervisor(accountRepo, credSvc, dialer, gate,
		presenceService.SupervisorOptions{
			ReconnectDelay:       time.Duration(conf.WorkerConfig.ReconnectDelaySeconds) * time.Second,
			MaxReconnectAttempts: conf.WorkerConfig.MaxReconnectAttempts,
			ShutdownTimeout:      time.Duration(conf.WorkerConfig.ShutdownTimeoutSeconds) * time.Second,
		})

	provider, err := search.NewHTTPProvider(search.ProviderConfig{
		BaseURL: conf.ContentConfig.BaseURL,
		APIKey:  conf.ContentConfig.APIKey,
		Timeout: time.Duration(conf.ContentConfig.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("content provider: %w", err)
	}
	resolver := contentService.NewResolverService(provider, conf.ContentConfig.MaxCandidates)

	deliverySvc := deliveryService.NewDeliveryService(accountRepo, prefSvc, resolver, deliveryRepo, supervisor)
	alertSvc := deliveryService.NewAlertService(alertRepo, wsHub)

	// Kafka 未配置时事件流只推 WebSocket，投递请求主题不消费
	var publisher mq.Publisher
	var consumerWorker *queue.RequestConsumerWorker
	if len(conf.KafkaConfig.Brokers) > 0 {
		publisher, err = kafka.NewPublisher(conf.KafkaConfig.Brokers)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			GroupID:  conf.KafkaConfig.ConsumerGroupID,
			Topics:   []string{conf.KafkaConfig.DeliveryRequestTopic},
			ClientID: conf.KafkaConfig.ClientID,
		})
		if err != nil {
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		consumerWorker = queue.NewRequestConsumerWorker(consumer, deliverySvc)
	} else {
		zlog.Info("Kafka 未配置，事件流仅推送 WebSocket")
	}
	feed := queue.NewEventFeed(publisher, conf.KafkaConfig.EventFeedTopic, wsHub)

	supervisor.SetSinks(deliverySvc, feed, alertSvc)

	schedulerMgr := scheduler.NewMaintenanceManager(supervisor, gate, cooldownStore)

	accountH := accountHandler.NewAccountHandler(accountSvc)
	workerH := presenceHandler.NewWorkerHandler(supervisor)
	dashH := presenceHandler.NewDashboardWsHandler(wsHub)
	deliveryH := deliveryHandler.NewDeliveryHandler(deliverySvc, alertSvc)

	GE.POST("/account/register", accountH.Register)
	GE.POST("/account/token", accountH.Token)
	GE.GET("/wss", dashH.Connect)

	authed := GE.Group("/")
	authed.Use(jwtMiddleware.Auth())
	authed.GET("/auth/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"uuid":     c.GetString("uuid"),
			"username": c.GetString("username"),
		})
	})
	authed.GET("/account/:account_id", accountH.Get)
	authed.POST("/account/:account_id/preference", accountH.UpsertPreference)

	authed.POST("/worker/:account_id/start", workerH.Start)
	authed.POST("/worker/:account_id/stop", workerH.Stop)
	authed.GET("/worker/:account_id/status", workerH.Status)
	authed.PUT("/worker/:account_id/settings", workerH.UpdateSettings)
	authed.GET("/workers/status", workerH.AllStatus)
	authed.GET("/workers/metrics", workerH.Metrics)
	authed.POST("/workers/stopAll", workerH.StopAll)

	authed.GET("/delivery/:account_id/records", deliveryH.ListDeliveries)
	authed.GET("/alerts", deliveryH.ListAlerts)

	return &App{
		Engine:     GE,
		Hub:        wsHub,
		Supervisor: supervisor,
		Scheduler:  schedulerMgr,
		Publisher:  publisher,
		Consumer:   consumerWorker,
	}, nil
}
