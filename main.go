package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"

	"rednote_card_maker/agent"
	"rednote_card_maker/llm"
	"rednote_card_maker/server"
)

var verbose bool

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	configPath := flag.String("config", "config/config.json", "path to config.json")
	mdPath := flag.String("md", "", "path to markdown file")
	outDir := flag.String("out", "", "output directory (overrides config.output_dir)")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	noFeedback := flag.Bool("no-feedback", false, "skip the render/critique feedback loop")
	flag.BoolVar(&verbose, "v", false, "enable info logs")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}

	client, err := buildLLM(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Web server mode
	if *serve {
		srv, err := server.New(cfg, client)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		if listen == "" {
			listen = ":8080"
		}
		log.Printf("Starting web server on %s", listen)
		if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if *mdPath == "" {
		fmt.Fprintln(os.Stderr, "--md is required (or use --serve)")
		os.Exit(1)
	}

	a := agent.New(cfg, client)
	if verbose {
		a.SetProgress(func(ev agent.ProgressEvent) {
			log.Printf("[cli] %s %.0f%% %s", ev.Stage, ev.Progress*100, ev.Message)
		})
	}

	ctx := context.Background()
	log.Printf("[cli] converting md=%s out=%s feedback=%v", *mdPath, cfg.OutputDir, !*noFeedback)
	result, err := a.ConvertFile(ctx, *mdPath, !*noFeedback)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Printf("[cli] done: %d pages, %d files", len(result.Pages), len(result.OutputFiles))
	for _, f := range result.OutputFiles {
		fmt.Println(f)
	}
}

// loadConfig 容忍配置文件缺失：走环境变量 + 默认值。
func loadConfig(path string) (agent.Config, error) {
	cfg, err := agent.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[cli] config %s not found, using defaults", path)
		return agent.Config{}.WithDefaults(), nil
	}
	return agent.Config{}, err
}

func buildLLM(cfg agent.Config) (llm.Client, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		// 无模型配置时走纯本地规则排版
		log.Printf("[cli] no llm configured, running rule-based pipeline")
		return nil, nil
	}
	switch cfg.LLM.Provider {
	case "openai":
		c, err := llm.ResolveConfig(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		return llm.NewOpenAIClient(c)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url。
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		c, err := llm.ResolveConfig(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		return llm.NewOpenAIClient(c)
	case "mock":
		return &llm.Mock{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
