package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/db"
	"liyu1981.xyz/sos-response-service/pkg/gateway"
	sosGrpc "liyu1981.xyz/sos-response-service/pkg/grpc"
	sosHttp "liyu1981.xyz/sos-response-service/pkg/http"
	"liyu1981.xyz/sos-response-service/pkg/realtime"
	"liyu1981.xyz/sos-response-service/pkg/sos"
)

const containmentTTL = 7 * 24 * time.Hour

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	dialector, err := db.UseDialector(cfg)
	if err != nil {
		log.Fatal("Unknown SOS_DB_TYPE: ", err)
	}
	dbInstance := db.GetInstance(dialector)

	logger := common.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sosCore := sos.New(*dbInstance, cfg)

	gateways := sos.Gateways{}
	if cfg.Twilio.Configured() {
		twilio := gateway.NewTwilio(cfg.Twilio)
		gateways.SMS = twilio
		gateways.Voice = twilio
	}
	if cfg.Push.URL != "" {
		gateways.Push = gateway.NewHTTPPush(cfg.Push)
	}
	if cfg.SMTP.Host != "" {
		gateways.Email = gateway.NewSMTPMailer(cfg.SMTP)
	}
	sosCore.WithGateways(gateways)
	logger.Info("Gateways configured",
		zap.Bool("sms_voice", gateways.SMS != nil),
		zap.Bool("push", gateways.Push != nil),
		zap.Bool("email", gateways.Email != nil),
	)

	hub := realtime.NewHub(30 * time.Second)
	broadcasters := realtime.Multi{hub}

	var subscriber *realtime.DeviceSubscriber
	if cfg.MQTT.Broker != "" {
		client, err := realtime.ConnectMQTT(cfg.MQTT)
		if err != nil {
			log.Fatalf("mqtt: %v", err)
		}
		defer client.Disconnect(250)
		broadcasters = append(broadcasters, realtime.NewMQTTPublisher(client))

		subscriber = realtime.NewDeviceSubscriber(client, cfg.MQTT.DeviceTopic, sosCore.HandleDeviceEvent, sosCore.Limiters)
		logger.Info("MQTT connected", zap.String("broker", cfg.MQTT.Broker), zap.String("device_topic", cfg.MQTT.DeviceTopic))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kafka := realtime.NewKafkaPublisher(cfg.Kafka)
		defer kafka.Close()
		broadcasters = append(broadcasters, kafka)
		logger.Info("Kafka event log enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.TopicEvents))
	}
	sosCore.WithBroadcaster(broadcasters)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		sosCore.WithContainmentStore(sos.NewRedisContainmentStore(rdb, containmentTTL))
		logger.Info("Geofence containment stored in redis", zap.String("addr", cfg.Redis.Addr))
	}

	jobs, err := sosCore.StartJobs()
	if err != nil {
		log.Fatalf("jobs: %v", err)
	}

	if subscriber != nil {
		if err := subscriber.Start(); err != nil {
			log.Fatalf("mqtt subscribe: %v", err)
		}
	}

	if cfg.GrpcHostPort != "" {
		logger.Info("Starting gRPC server on port " + cfg.GrpcHostPort)
		go func() {
			sosGrpcServer := sosGrpc.SOSServer{
				SOS:              sosCore,
				RateLimiterStore: sosCore.Limiters,
			}
			interceptor := sosGrpcServer.CreateRateLimitInterceptor([]any{
				&sosGrpc.RaiseIncidentRequest{},
				&sosGrpc.DeviceEventRequest{},
			})
			s := grpc.NewServer(grpc.ChainUnaryInterceptor(sosGrpc.ErrorInterceptor(), interceptor))
			sosGrpc.RegisterIncidentServiceServer(s, &sosGrpcServer)
			logger.Info("gRPC server created with:",
				zap.String("default_limiter",
					fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.DefaultRate, cfg.DefaultBurst)))

			listener, err := net.Listen("tcp", cfg.GrpcHostPort)
			if err != nil {
				log.Fatalf("failed to listen: %v", err)
			}

			go func() {
				<-ctx.Done()
				s.GracefulStop()
			}()

			logger.Info("start gRPC server on " + cfg.GrpcHostPort)
			if err := s.Serve(listener); err != nil {
				log.Fatalf("grpc server failed to serve: %v", err)
			}
		}()
	}

	rs := &sosHttp.RestfulServer{
		Server:           gin.Default(),
		SOS:              sosCore,
		Hub:              hub,
		RateLimiterStore: sosCore.Limiters,
		JWTSecret:        cfg.JWTSecret,
	}
	rs.Setup()

	logger.Info("http server created with:",
		zap.String("default_limiter",
			fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.DefaultRate, cfg.DefaultBurst)),
		zap.Bool("jwt", cfg.JWTSecret != ""))

	go func() {
		logger.Info("Starting HTTP server on: " + cfg.HttpHostPort)
		if err := rs.Server.Run(cfg.HttpHostPort); err != nil {
			log.Fatalf("http server failed to serve: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	if subscriber != nil {
		subscriber.Stop()
	}
	<-jobs.Stop().Done()
	sosCore.Wait()
}
