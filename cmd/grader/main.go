package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sinavlab/grader/internal/eval"
	"github.com/sinavlab/grader/internal/handler"
	appI18n "github.com/sinavlab/grader/internal/i18n"
	"github.com/sinavlab/grader/internal/model"
	"github.com/sinavlab/grader/internal/oracle"
	"github.com/sinavlab/grader/internal/store"
)

func main() {
	// Cancelling the run must reach outstanding oracle calls, so the whole
	// command tree shares a signal-bound context.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "grader",
		Short: "Grades OCR-extracted exam answers against an answer key",
	}

	evaluate := evaluateCmd()
	root.AddCommand(evaluate, serveCmd())

	// Make "evaluate" the default so bare `grader a.json b.json` works.
	root.RunE = evaluate.RunE
	root.Args = cobra.ArbitraryArgs
	root.Flags().AddFlagSet(evaluate.Flags())

	return root
}

func engineFlags(f *pflag.FlagSet) {
	f.String("policy", string(eval.PolicyBinary), "Scoring policy (binary, graded)")
	f.String("llm-transport", "process", "Oracle transport (process, api)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL (api transport)")
	f.String("llm-key", "ollama", "API key for the oracle endpoint")
	f.String("llm-model", "gemma3:270m", "Oracle model name")
	f.Int("workers", 4, "Concurrent question evaluations")
	f.Int("oracle-slots", 1, "Concurrent oracle invocations")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <ocr_result.json> <answer_key.json>",
		Short: "Grade one submission and write the evaluation report",
		Args:  cobra.ArbitraryArgs,
		RunE:  runEvaluate,
	}
	f := cmd.Flags()
	engineFlags(f)
	f.String("results-dir", "output_llm", "Directory for evaluation report files")
	f.String("db", "", "SQLite database path for the report archive (empty = no archive)")
	f.StringP("lang", "l", "tr", "Console output language (tr, en)")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP grading server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	engineFlags(f)
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "grader.db", "SQLite database path for the report archive")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("GRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("grader")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/grader")
	v.AddConfigPath("/etc/grader")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	}

	return v
}

// buildEngine wires the configured oracle transport into an evaluation engine.
func buildEngine(v *viper.Viper) (*eval.Engine, error) {
	policyName := strings.ToLower(strings.TrimSpace(v.GetString("policy")))
	if !eval.ValidPolicy(policyName) {
		return nil, fmt.Errorf("invalid policy %q (binary, graded)", policyName)
	}
	policy := eval.Policy(policyName)

	var scorer eval.Scorer
	switch v.GetString("llm-transport") {
	case "process":
		scorer = oracle.NewProcess(v.GetString("llm-model"), policy.VerbalVariant())
	case "api":
		scorer = oracle.New(
			v.GetString("llm-url"),
			v.GetString("llm-key"),
			v.GetString("llm-model"),
			policy.VerbalVariant(),
		)
	default:
		return nil, fmt.Errorf("invalid llm-transport %q (process, api)", v.GetString("llm-transport"))
	}

	return eval.New(scorer, eval.Config{
		Policy:      policy,
		Workers:     v.GetInt("workers"),
		OracleSlots: v.GetInt("oracle-slots"),
	}), nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Missing arguments print usage and exit cleanly.
	if len(args) < 2 {
		cmd.Println(appI18n.T("usage"))
		return nil
	}

	sub, err := loadSubmission(args[0])
	if err != nil {
		return err
	}
	key, err := loadAnswerKey(args[1])
	if err != nil {
		return err
	}

	engine, err := buildEngine(v)
	if err != nil {
		return err
	}

	cmd.Println(appI18n.T("evaluating"))

	report, err := engine.Grade(cmd.Context(), sub, key)
	if err != nil {
		return fmt.Errorf("grade submission: %w", err)
	}

	questionNums := make([]int, 0, len(report.Questions))
	for q := range report.Questions {
		questionNums = append(questionNums, q)
	}
	slices.Sort(questionNums)
	for _, q := range questionNums {
		d := report.Questions[q]
		cmd.Printf("Soru %d: %.0f/100 - %s (%s) [Skor: %.1f]\n",
			q, d.Coefficient*100, d.Status, d.Method, d.FinalScore)
	}

	outPath, err := writeReport(v.GetString("results-dir"), args[0], report)
	if err != nil {
		return err
	}

	if dbPath := v.GetString("db"); dbPath != "" {
		if err := archiveReport(dbPath, string(engine.Policy()), args[0], report); err != nil {
			return err
		}
	}

	cmd.Println(appI18n.Td("summary_score", map[string]any{"Score": fmt.Sprintf("%.1f", report.Summary.TotalScore)}))
	cmd.Println(appI18n.Td("summary_counts", map[string]any{
		"Correct": report.Summary.Correct,
		"Wrong":   report.Summary.Wrong,
		"Blank":   report.Summary.Blank,
	}))
	if report.Summary.NumericCount != nil && report.Summary.VerbalCount != nil {
		cmd.Println(appI18n.Td("summary_question_types", map[string]any{
			"Numeric": *report.Summary.NumericCount,
			"Verbal":  *report.Summary.VerbalCount,
		}))
	}
	cmd.Println(appI18n.Td("saved_to", map[string]any{"Path": outPath}))

	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	engine, err := buildEngine(v)
	if err != nil {
		return err
	}

	h := handler.New(db, engine)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"policy", v.GetString("policy"),
		"llm_transport", v.GetString("llm-transport"),
		"llm_model", v.GetString("llm-model"),
		"workers", v.GetInt("workers"),
		"oracle_slots", v.GetInt("oracle-slots"),
	)
	return http.ListenAndServe(addr, r)
}

func loadSubmission(path string) (model.StudentSubmission, error) {
	var sub model.StudentSubmission
	data, err := os.ReadFile(path)
	if err != nil {
		return sub, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &sub); err != nil {
		return sub, fmt.Errorf("parse %s: %w", path, err)
	}
	return sub, nil
}

func loadAnswerKey(path string) (model.AnswerKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var key model.AnswerKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return key, nil
}

// writeReport writes the report next to previous runs: the input filename
// with an _evaluation suffix inside the results directory.
func writeReport(resultsDir, inputPath string, report model.ExamReport) (string, error) {
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outPath := filepath.Join(resultsDir, base+"_evaluation.json")

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return outPath, nil
}

func archiveReport(dbPath, policy, sourceFile string, report model.ExamReport) error {
	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	_, err = db.SaveReport(store.ReportRecord{
		StudentID:      report.StudentID,
		StudentName:    report.StudentName,
		SourceFile:     filepath.Base(sourceFile),
		Policy:         policy,
		TotalScore:     report.Summary.TotalScore,
		Correct:        report.Summary.Correct,
		Wrong:          report.Summary.Wrong,
		Blank:          report.Summary.Blank,
		TotalQuestions: report.Summary.TotalQuestions,
		Report:         report,
	})
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	return nil
}
