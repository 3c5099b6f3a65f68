// token 为地址签发调用令牌，供本地调试 API 使用
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/logger"
	"github.com/blues/mfs/internal/middleware"
)

func main() {
	configFile := flag.String("config", "", "config file path")
	address := flag.String("address", "", "caller address")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret is not configured")
	}

	token, err := middleware.GenerateToken(cfg.Auth.JWTSecret, *address, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("Failed to generate token: %v", err)
	}
	fmt.Fprintln(os.Stdout, token)
}
