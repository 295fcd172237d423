// =============================================================================
// FinAssist 主入口
// =============================================================================
// 个人理财助手 CLI:索引构建、单次问答、目标管理
//
// 使用方法:
//
//	finassist index                        # 构建知识库索引
//	finassist index --config config.yaml   # 指定配置文件
//	finassist ask "what is an ETF"          # 单次问答
//	finassist goal add --name Retirement ...# 新建目标
//	finassist goal list                     # 列出目标
//	finassist goal plan --name Retirement   # 目标预测
//	finassist version                       # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/finassist/finassist"
	"github.com/finassist/finassist/config"
	"github.com/finassist/finassist/goals"
	"github.com/finassist/finassist/internal/metrics"
	"github.com/finassist/finassist/internal/telemetry"
	"github.com/finassist/finassist/llm/embedding"
	"github.com/finassist/finassist/marketdata"
	"github.com/finassist/finassist/rag"
	"github.com/finassist/finassist/rag/loader"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "index":
		runIndex(os.Args[2:])
	case "ask":
		runAsk(os.Args[2:])
	case "goal":
		runGoal(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 📚 index 命令
// =============================================================================

func runIndex(args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	kbDir := fs.String("kb", "", "Knowledge base directory (overrides config)")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	if *kbDir != "" {
		cfg.Index.KnowledgeBaseDir = *kbDir
	}

	ctx := context.Background()

	// 加载知识库文档
	registry := loader.NewRegistry()
	docs, err := registry.LoadDir(ctx, cfg.Index.KnowledgeBaseDir)
	if err != nil {
		fatalf(logger, "load knowledge base: %v", err)
	}
	logger.Info("knowledge base loaded",
		zap.String("dir", cfg.Index.KnowledgeBaseDir),
		zap.Int("documents", len(docs)),
	)

	embedder, err := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout,
	})
	if err != nil {
		fatalf(logger, "embedding provider: %v", err)
	}

	store, err := rag.NewStore(rag.StoreConfig{
		Dir: cfg.Index.Dir,
		Chunker: rag.ChunkerConfig{
			ChunkSize: cfg.Index.ChunkSize,
			Overlap:   cfg.Index.ChunkOverlap,
		},
		BatchSize: cfg.Embedding.BatchSize,
	}, embedder, logger)
	if err != nil {
		fatalf(logger, "index store: %v", err)
	}

	start := time.Now()
	if err := store.BuildIndex(ctx, docs); err != nil {
		fatalf(logger, "build index: %v", err)
	}

	fmt.Printf("Indexed %d documents into %d chunks (%s)\n",
		len(docs), store.Count(), time.Since(start).Round(time.Millisecond))
	fmt.Printf("Artifacts written to %s\n", cfg.Index.Dir)
}

// =============================================================================
// 💬 ask 命令
// =============================================================================

func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "Usage: finassist ask \"<question>\"")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	ctx := context.Background()

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelProviders.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	assistant, err := finassist.New(ctx, cfg,
		finassist.WithLogger(logger),
		finassist.WithMetrics(metrics.NewCollector("finassist", logger)),
	)
	if err != nil {
		fatalf(logger, "assemble pipeline (run `finassist index` first?): %v", err)
	}
	defer assistant.Close()

	state, err := assistant.Ask(ctx, query)
	if err != nil {
		fatalf(logger, "run: %v", err)
	}

	fmt.Println(state.Answer)
	if len(state.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range state.Sources {
			fmt.Printf("  %s\n", s)
		}
	}
	fmt.Printf("\n(intent=%s agent=%s request=%s)\n", state.Intent, state.AgentName, state.RequestID)
}

// =============================================================================
// 🎯 goal 命令
// =============================================================================

func runGoal(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: finassist goal <add|list|show|plan|delete> [options]")
		os.Exit(1)
	}

	sub := args[0]
	fs := flag.NewFlagSet("goal "+sub, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	name := fs.String("name", "", "Goal name")
	category := fs.String("category", "Other", "Goal category")
	target := fs.Float64("target", 0, "Target amount")
	current := fs.Float64("current", 0, "Current amount")
	monthly := fs.Float64("monthly", 0, "Monthly contribution")
	years := fs.Int("years", 1, "Time horizon in years")
	annual := fs.Float64("return", 5.0, "Expected annual return (percent)")
	fs.Parse(args[1:])

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	store, err := goals.Open(cfg.Goals.DBPath, logger)
	if err != nil {
		fatalf(logger, "open goals db: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	switch sub {
	case "add":
		goal := &goals.Goal{
			Name:                *name,
			Category:            *category,
			TargetAmount:        *target,
			CurrentAmount:       *current,
			MonthlyContribution: *monthly,
			HorizonYears:        *years,
			AnnualReturnPct:     *annual,
		}
		if err := store.Create(ctx, goal); err != nil {
			fatalf(logger, "create goal: %v", err)
		}
		fmt.Printf("Created goal %q (%s)\n", goal.Name, goal.Category)

	case "list":
		list, err := store.List(ctx)
		if err != nil {
			fatalf(logger, "list goals: %v", err)
		}
		if len(list) == 0 {
			fmt.Println("No goals yet. Add one with `finassist goal add --name ...`")
			return
		}
		for _, g := range list {
			fmt.Printf("%-20s %-14s target $%.2f current $%.2f monthly $%.2f %dy @%.1f%%\n",
				g.Name, g.Category, g.TargetAmount, g.CurrentAmount,
				g.MonthlyContribution, g.HorizonYears, g.AnnualReturnPct)
		}

	case "show":
		goal := mustGetGoal(ctx, store, *name, logger)
		fmt.Printf("%s (%s)\n", goal.Name, goal.Category)
		fmt.Printf("  Target:   $%.2f\n", goal.TargetAmount)
		fmt.Printf("  Current:  $%.2f\n", goal.CurrentAmount)
		fmt.Printf("  Monthly:  $%.2f\n", goal.MonthlyContribution)
		fmt.Printf("  Horizon:  %d years @ %.1f%% annual\n", goal.HorizonYears, goal.AnnualReturnPct)
		fmt.Printf("  Created:  %s\n", goal.CreatedOn.Format("2006-01-02"))

	case "plan":
		goal := mustGetGoal(ctx, store, *name, logger)
		schedule := goal.Schedule()
		final := schedule[len(schedule)-1].Balance
		fmt.Printf("Projection for %q over %d months:\n", goal.Name, goal.HorizonYears*12)
		if month, ok := goals.ReachMonth(schedule, goal.TargetAmount); ok {
			fmt.Printf("  Target $%.2f reached around month %d\n", goal.TargetAmount, month)
		} else {
			fmt.Printf("  Target $%.2f not reached; final balance $%.2f\n", goal.TargetAmount, final)
			required, err := goals.RequiredContribution(
				goal.CurrentAmount, goal.TargetAmount, goal.HorizonYears*12, goal.AnnualReturnPct)
			if err == nil {
				fmt.Printf("  Required monthly contribution: $%.2f\n", required)
			}
		}
		fmt.Println("  Educational projection only. Not financial advice.")

	case "delete":
		if *name == "" {
			fatalf(logger, "goal delete requires --name")
		}
		if err := store.Delete(ctx, *name); err != nil {
			fatalf(logger, "delete goal: %v", err)
		}
		fmt.Printf("Deleted goal %q\n", *name)

	default:
		fmt.Fprintf(os.Stderr, "Unknown goal subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func mustGetGoal(ctx context.Context, store *goals.Store, name string, logger *zap.Logger) *goals.Goal {
	if name == "" {
		fatalf(logger, "goal command requires --name")
	}
	goal, err := store.Get(ctx, name)
	if err != nil {
		fatalf(logger, "get goal: %v", err)
	}
	return goal
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("FinAssist %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`FinAssist - personal finance education assistant

Usage:
  finassist <command> [options]

Commands:
  index     Build the knowledge base retrieval index
  ask       Answer one question through the agent pipeline
  goal      Manage saved financial goals
  version   Show version information
  help      Show this help message

Options (all commands):
  --config <path>   Path to configuration file (YAML)

Goal subcommands:
  goal add --name <n> --category <c> --target <amt> [--current <amt>]
           [--monthly <amt>] [--years <n>] [--return <pct>]
  goal list
  goal show --name <n>
  goal plan --name <n>
  goal delete --name <n>

Examples:
  finassist index --kb data/knowledge_base
  finassist ask "what is an ETF"
  finassist ask "show me the price chart for AAPL"
  finassist goal add --name Retirement --category Retirement --target 500000 --monthly 800 --years 30
  finassist goal plan --name Retirement
  finassist version`)
	fmt.Printf("\nMarket periods understood by 'ask': %s\n", strings.Join(marketdata.Periods(), ", "))
}

// =============================================================================
// 🔧 配置与日志初始化
// =============================================================================

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}

func fatalf(logger *zap.Logger, format string, args ...interface{}) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
