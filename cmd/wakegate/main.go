// Package main 提供 wakegate 命令行入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dep2p/go-wakegate"
	"github.com/dep2p/go-wakegate/internal/util/logger"
)

var log = logger.Logger("cmd")

// stopTimeout 收到退出信号后的最长等待时间
const stopTimeout = 10 * time.Second

var (
	configFile  = flag.String("config", "", "YAML 配置文件路径")
	envFile     = flag.String("env-file", ".env", "dotenv 文件路径（不存在时忽略）")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(wakegate.VersionInfo())
		return nil
	}

	cfg, err := wakegate.LoadConfig(wakegate.LoadOptions{
		File:    *configFile,
		EnvFile: *envFile,
	})
	if err != nil {
		if errors.Is(err, wakegate.ErrConfigurationMissing) {
			return fmt.Errorf("%w (需要设置 PTERO_PANEL、PTERO_SERVER_ID、PTERO_API_KEY)", err)
		}
		return fmt.Errorf("配置错误: %w", err)
	}

	applyLogLevel(cfg.Log.Level)

	gw, err := wakegate.New(
		wakegate.WithConfig(cfg),
		wakegate.WithFxEvents(cfg.Log.FxEvents),
	)
	if err != nil {
		return err
	}

	log.Info("启动 wakegate",
		"version", wakegate.Version,
		"commit", wakegate.GitCommit,
		"listen", cfg.Listen.Addr(),
		"backend", cfg.Backend.Addr(),
		"idle_minutes", cfg.Idle.ShutdownMinutes)

	if err := gw.Start(context.Background()); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	waitForSignal()
	log.Info("正在关闭")

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return gw.Stop(ctx)
}

// applyLogLevel 配置文件中的日志级别；WAKEGATE_LOG_LEVEL 已设置时以环境变量为准
func applyLogLevel(level string) {
	if os.Getenv(logger.EnvLogLevel) != "" {
		return
	}
	if lvl, ok := logger.ParseLevel(level); ok {
		logger.SetGlobalLevel(lvl)
	}
}

func waitForSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	signal.Stop(sig)
}
