package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/synaptica-ai/medtriage/pkg/app"
	"github.com/synaptica-ai/medtriage/pkg/common/config"
	"github.com/synaptica-ai/medtriage/pkg/common/kafka"
	"github.com/synaptica-ai/medtriage/pkg/common/logger"
)

func main() {
	logger.Init()
	cfg := config.Load()

	if !cfg.KafkaEnabled() {
		logger.Log.Fatal("KAFKA_BROKERS must be set for the analysis worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to start analysis worker")
	}
	defer components.Close()

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaAnalysisTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Shutting down Analysis Worker...")
		cancel()
	}()

	logger.Log.WithFields(map[string]interface{}{
		"topic": cfg.KafkaAnalysisTopic,
		"group": cfg.KafkaGroupID,
	}).Info("Analysis Worker started")

	if err := consumer.Consume(ctx, components.Patients.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.WithError(err).Error("consumer stopped")
	}

	logger.Log.Info("Analysis Worker stopped")
}
