// =============================================================================
// 文件: cmd/framesend-demo/main.go
// 描述: 主程序入口 - fragment sender demo process
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relayforge/framesend/internal/config"
	"github.com/relayforge/framesend/internal/metrics"
	"github.com/relayforge/framesend/internal/netmgr"
	"github.com/relayforge/framesend/internal/sender"
)

var (
	Version   = "1.0.0"
	startTime = time.Now()
)

func main() {
	configPath := flag.String("c", "config.yaml", "configuration file path")
	genConfig := flag.Bool("gen-config", false, "write an example configuration file and exit")
	showVersion := flag.Bool("v", false, "print version and exit")
	frameSize := flag.Int("frame-size", 64*1024, "synthetic frame size in bytes, for the demo producer")
	frameIntervalMs := flag.Int("frame-interval-ms", 33, "interval between synthetic frames, for the demo producer")
	flag.Parse()

	if *showVersion {
		fmt.Printf("framesend-demo %s\n", Version)
		return
	}

	if *genConfig {
		if err := config.WriteExampleConfig("config.example.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write example config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("wrote example config to config.example.yaml")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "[framesend] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr, err := netmgr.Dial(cfg.RemoteAddr, logger)
	if err != nil {
		logger.Fatalf("dial %s: %v", cfg.RemoteAddr, err)
	}
	defer mgr.Close()

	var metricsServer *metrics.MetricsServer
	var senderMetrics *metrics.SenderMetrics
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewMetricsServer(cfg.Metrics.Listen, cfg.Metrics.Path, cfg.Metrics.HealthPath)
		senderMetrics = metrics.NewSenderMetrics(metricsServer.GetRegistry())
	}

	var snd *sender.Sender
	callback := func(status sender.CallbackStatus, buffer []byte, size int, frameNumber uint32, userCtx any) {
		if senderMetrics != nil {
			senderMetrics.RecordCompletion(status == sender.FrameSent)
		}
		switch status {
		case sender.FrameSent:
			logger.Printf("frame %d sent (%d bytes)", frameNumber, size)
		case sender.FrameCancel:
			logger.Printf("frame %d cancelled (%d bytes)", frameNumber, size)
		}
	}

	snd, err = sender.New(sender.Config{
		Manager:       mgr,
		QueueCapacity: cfg.QueueCapacity,
		Callback:      callback,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatalf("sender.New: %v", err)
	}

	if metricsServer != nil {
		metricsServer.MustRegisterCollector(metrics.NewSenderCollector(snd))
		metricsServer.SetHealthCheck(func() metrics.HealthStatus {
			return metrics.HealthStatus{
				Status:    "healthy",
				Timestamp: time.Now(),
				Version:   Version,
				Uptime:    time.Since(startTime),
				Components: map[string]metrics.ComponentHealth{
					"sender": {Status: "healthy"},
				},
			}
		})
		if err := metricsServer.Start(ctx); err != nil {
			logger.Printf("metrics server failed to start: %v", err)
		} else {
			logger.Printf("metrics listening on %s%s", cfg.Metrics.Listen, cfg.Metrics.Path)
		}
	}

	go snd.RunDataLoop()
	go snd.RunAckLoop()

	go runProducer(ctx, snd, logger, *frameSize, time.Duration(*frameIntervalMs)*time.Millisecond)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Println("shutting down")
	cancel()
	snd.Stop()
	for {
		if err := snd.Delete(); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if metricsServer != nil {
		metricsServer.Stop()
	}
}

// runProducer generates synthetic frames on a fixed cadence, standing in
// for a real video encoder's output, until ctx is cancelled.
func runProducer(ctx context.Context, snd *sender.Sender, logger *log.Logger, frameSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	buf := make([]byte, frameSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rand.Read(buf)
			if _, err := snd.SendNewFrame(buf, len(buf), false); err != nil {
				logger.Printf("SendNewFrame: %v", err)
			}
		}
	}
}
