// Command structai-eval compares pipeline variants on a fixed prompt set
// and prints a quality leaderboard.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/config"
	"github.com/capstruct/structai/internal/domain/feedback"
	logpkg "github.com/capstruct/structai/internal/logger"
	"github.com/capstruct/structai/internal/metrics"
	"github.com/capstruct/structai/internal/transport/cortex"
	openaiCompletion "github.com/capstruct/structai/internal/transport/openai"
	classifyuc "github.com/capstruct/structai/internal/usecase/classify"
	evaluc "github.com/capstruct/structai/internal/usecase/eval"
	retrieveuc "github.com/capstruct/structai/internal/usecase/retrieve"
	rewriteuc "github.com/capstruct/structai/internal/usecase/rewrite"
)

// defaultPrompts is the built-in benchmark: building-compliance questions
// for the Vancouver document corpus.
var defaultPrompts = []string{
	"What are the structural integrity requirements for foundation systems in Vancouver for buildings over 100 feet tall, particularly in seismic zones?",
	"What are the fire protection and smoke ventilation requirements for underground parking garages in Vancouver according to the BC Building Code?",
	"What are the specific design requirements for load-bearing walls in multi-story commercial buildings under Vancouver's seismic regulations?",
	"What are the ventilation system requirements for industrial facilities in Vancouver that handle hazardous materials to ensure worker safety?",
	"What are the energy efficiency and insulation requirements for residential buildings in Vancouver, particularly in terms of thermal resistance (R-values)?",
	"What are the construction site signage requirements for hazardous areas, such as those with high-voltage equipment, in Vancouver?",
	"What are the requirements for soil contamination testing before commencing construction in Vancouver?",
}

func main() {
	promptsPath := flag.String("prompts", "", "path to a file with one evaluation prompt per line (default: built-in set)")
	appName := flag.String("app", "capstruct", "application name reported on the leaderboard")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	flag.Parse()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterPipelineMetrics()

	prompts := defaultPrompts
	if *promptsPath != "" {
		prompts, err = loadPrompts(*promptsPath)
		if err != nil {
			logger.Fatal("Failed to load prompts", zap.Error(err))
		}
	}
	if len(prompts) == 0 {
		logger.Fatal("No prompts to evaluate")
	}

	searchClient := cortex.NewClient(&cortex.Config{
		BaseURL: cfg.Search.BaseURL,
		APIKey:  cfg.Search.APIKey,
		Timeout: time.Duration(cfg.Search.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	completer := openaiCompletion.NewCompleter(&openaiCompletion.Config{
		APIKey:  cfg.Completion.APIKey,
		BaseURL: cfg.Completion.BaseURL,
		Logger:  logger,
	})

	classifier := classifyuc.New(completer, cfg.Completion.Model, logger)
	rewriter := rewriteuc.New(completer, cfg.Completion.Model, logger)
	retriever := retrieveuc.New(classifier, searchClient, cfg.Pipeline.NumChunks, logger)

	judge := evaluc.NewJudgeScorer(completer, cfg.Completion.JudgeModel, logger)

	// The improved variant screens each retrieved chunk through the judge
	// before the generator sees it.
	guarded := retrieveuc.WithGuardrail(retriever, retrieveuc.ScorerFunc(
		func(ctx context.Context, query, chunk string) (float64, error) {
			judgment, err := judge.ContextRelevance(ctx, query, chunk)
			if err != nil {
				return 0, err
			}
			return judgment.Score, nil
		},
	), cfg.Pipeline.MinScore, logger)

	variants := []struct {
		variant   feedback.Variant
		retriever retrieveuc.Retriever
	}{
		{feedback.Variant{Name: *appName, Version: "simple"}, retriever},
		{feedback.Variant{Name: *appName, Version: "improved"}, guarded},
	}

	board := feedback.NewBoard()
	harness := evaluc.NewHarness(judge, board, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	for _, v := range variants {
		pipeline := evaluc.NewPipeline(evaluc.PipelineConfig{
			Retriever:   v.retriever,
			Rewriter:    rewriter,
			Completer:   completer,
			Model:       cfg.Completion.Model,
			SlideWindow: cfg.Pipeline.SlideWindow,
			Logger:      logger,
		})

		logger.Info("Evaluating variant",
			zap.String("variant", v.variant.String()),
			zap.Int("prompts", len(prompts)),
		)
		if err := harness.Run(ctx, v.variant, pipeline, prompts); err != nil {
			logger.Fatal("Evaluation run failed",
				zap.String("variant", v.variant.String()), zap.Error(err))
		}
	}

	printLeaderboard(board)
}

func loadPrompts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prompts file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var prompts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64<<10), 64<<10)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	return prompts, nil
}

func printLeaderboard(board *feedback.Board) {
	fmt.Println()
	fmt.Println("Leaderboard")
	fmt.Printf("%-30s %-20s %8s %7s\n", "VARIANT", "DIMENSION", "MEAN", "COUNT")
	for _, row := range board.Leaderboard() {
		fmt.Printf("%-30s %-20s %8.3f %7d\n",
			row.Variant.String(), string(row.Dimension), row.Mean, row.Count)
	}
}
