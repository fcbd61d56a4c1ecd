// cmd/server/main.go
package main

import (
	"fmt"
	"os"

	"github.com/Corphon/StyleCritic/internal/app"
	"github.com/Corphon/StyleCritic/internal/config"
	"github.com/Corphon/StyleCritic/internal/utils"
)

func main() {
	logger := utils.GetLogger()

	// 1. 加载配置，缺少 API key 时直接退出
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "配置无效: %v\n", err)
		os.Exit(1)
	}

	// 2. 日志、服务、路由
	if err := app.Initialize(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}
	logger.Info("stylecritic starting", map[string]interface{}{
		"port":        cfg.Port,
		"provider":    cfg.LLMProvider,
		"model":       cfg.LLMModel,
		"config_file": cfg.ConfigFile,
	})

	// 3. 运行直到收到信号
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "服务器异常退出: %v\n", err)
		os.Exit(1)
	}
}
