// Package main 等待数据库就绪
//
// 容器编排中放在 api-server 之前运行：按配置连接数据库并循环探活，
// 就绪后退出 0，超时退出 1。
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"lending-api/internal/config"
	"lending-api/internal/shared/infra"
)

func main() {
	configDirFlag := flag.String("config", "", "配置文件目录")
	timeout := flag.Duration("timeout", 0, "最长等待时间（默认取 database.wait_timeout）")
	flag.Parse()

	if *configDirFlag != "" {
		config.SetConfigDir(*configDirFlag)
	}
	cfg := config.Load()
	if *timeout > 0 {
		cfg.DBWaitTimeout = *timeout
	}
	if cfg.DBWaitTimeout <= 0 {
		cfg.DBWaitTimeout = 30 * time.Second
	}

	log.Printf("Waiting for %s database (timeout %s)...", cfg.DatabaseDriver, cfg.DBWaitTimeout)
	store, err := infra.OpenStore(context.Background(), cfg)
	if err != nil {
		log.Printf("Database unavailable: %v", err)
		os.Exit(1)
	}
	store.Close()
	log.Println("Database available!")
}
