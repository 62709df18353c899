package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/telnetscriptpro/telnetscriptpro/api/router"
	"github.com/telnetscriptpro/telnetscriptpro/internal/config"
	"github.com/telnetscriptpro/telnetscriptpro/internal/database"
	"github.com/telnetscriptpro/telnetscriptpro/internal/service"
	"github.com/telnetscriptpro/telnetscriptpro/pkg/logger"
	"github.com/telnetscriptpro/telnetscriptpro/simulate"
)

func main() {
	// 加载配置
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(loggerConfig(cfg)); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting Telnet Script Pro Server", " version ", "1.0.0")

	// 初始化数据库
	if err := database.InitSQLite(cfg.Database.SQLite); err != nil {
		logger.Fatal("Failed to initialize database: ", err)
	}
	defer database.Close()

	// 创建执行服务
	runner := service.NewRunnerService(cfg)
	logger.Info("Runner service ready, concurrent=", cfg.Runner.Concurrent)

	// 启动模拟服务（可选）
	var sim *simulate.Server
	if cfg.Server.SimulateEnable {
		sim = startSimulate()
	}
	defer func() {
		if sim != nil {
			sim.Stop()
		}
	}()

	// 设置路由
	r := router.SetupRouter(runner)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	go func() {
		logger.Info("Server starting on port ", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	// 配置文件监听与热更新
	go watchConfig(cfg, &sim)

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: ", err)
	}
	logger.Info("Server exited")
}

func loggerConfig(cfg *config.Config) logger.Config {
	return logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
}

func startSimulate() *simulate.Server {
	simPath := "simulate/simulate.yaml"
	if _, err := os.Stat(simPath); err != nil {
		logger.Warn("Simulate: simulate.yaml missing, skip starting: ", err)
		return nil
	}
	opts, err := simulate.LoadConfig(simPath)
	if err != nil {
		logger.Warn("Simulate: failed to load simulate.yaml: ", err)
		return nil
	}
	sim, err := simulate.Start(*opts)
	if err != nil {
		logger.Warn("Simulate: failed to start: ", err)
		return nil
	}
	logger.Info("Simulate: listening on ", sim.Addr())
	return sim
}

// watchConfig 监听配置文件变化：热更新日志配置与模拟服务开关
func watchConfig(cfg *config.Config, sim **simulate.Server) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("Config watch init failed: ", err)
		return
	}
	defer watcher.Close()

	path := "configs/config.yaml"
	if err := watcher.Add(path); err != nil {
		logger.Warn("Config watch add failed: ", err)
		return
	}

	var debounce *time.Timer
	const debounceInterval = 300 * time.Millisecond
	trigger := func() {
		newCfg, err := config.Load(path)
		if err != nil {
			logger.Warn("Config reload failed: ", err)
			return
		}
		// 原地覆盖，保持指针不变
		*cfg = *newCfg
		_ = logger.Init(loggerConfig(cfg))
		logger.Info("Config reloaded")

		// 模拟开关变化时动态启停
		if cfg.Server.SimulateEnable && *sim == nil {
			*sim = startSimulate()
		} else if !cfg.Server.SimulateEnable && *sim != nil {
			(*sim).Stop()
			*sim = nil
			logger.Info("Simulate: stopped by config reload")
		}
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceInterval, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watch error: ", err)
		}
	}
}
