package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"drill-talk/internal/api"
	"drill-talk/internal/config"
	"drill-talk/internal/course"
	"drill-talk/internal/filter"
	"drill-talk/internal/gateway"
	"drill-talk/internal/llm"
	"drill-talk/internal/nlu"
	"drill-talk/internal/orchestrator"
	"drill-talk/internal/score"
	"drill-talk/internal/session"

	"github.com/joho/godotenv"
)

func main() {
	// .env 仅本地开发用，线上直接用环境变量。
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/drilltalk.yaml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 配置性错误必须在启动期暴露：缺课表、缺敏感词库、依赖服务不可用
	// 都不允许拖到会话中途才发现。
	registry, err := course.NewRegistry(cfg.Paths.Courses)
	if err != nil {
		log.Fatalf("load courses: %v", err)
	}

	gfw := filter.New()
	if err := gfw.Parse(cfg.Paths.Keywords); err != nil {
		log.Fatalf("load keywords: %v", err)
	}

	classifier := nlu.NewRasaClassifier(cfg.NLU.RasaURL)
	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := classifier.Ping(pingCtx); err != nil {
		cancel()
		log.Fatalf("intent service: %v", err)
	}
	cancel()

	sim := nlu.NewEmbeddingSimilarity(cfg.NLU.EmbedURL, cfg.NLU.EmbedAPIKey, cfg.NLU.EmbedModel)

	gen, err := llm.NewClient(cfg)
	if err != nil {
		log.Fatalf("init generation client: %v", err)
	}

	records, err := score.NewRecordStore(cfg.Paths.RecordsDB)
	if err != nil {
		log.Fatalf("open records db: %v", err)
	}
	defer records.Close()

	board := score.NewLeaderboard()
	if err := records.LoadLeaderboard(board); err != nil {
		log.Fatalf("rebuild leaderboard: %v", err)
	}

	store := session.NewStore()
	hub := gateway.NewHub(cfg.Server.WriteTimeout)

	orch := orchestrator.New(
		registry, gfw, classifier, sim, gen,
		store, board, records, hub,
		cfg.Training, cfg.LLM.AttemptTimeout, time.Now,
	)

	server := api.NewServer(cfg, registry, hub, orch)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("drilltalk listening on %s", addr)
	if err := http.ListenAndServe(addr, server.Routes()); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
