package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"commitsum/cli/internal/classify"
	"commitsum/cli/internal/config"
	"commitsum/cli/internal/delegate"
	"commitsum/cli/internal/erruser"
	"commitsum/cli/internal/facts"
	"commitsum/cli/internal/git"
	"commitsum/cli/internal/llm"
	"commitsum/cli/internal/logging"
	"commitsum/cli/internal/ollama"
	"commitsum/cli/internal/output"
	"commitsum/cli/internal/render"
	"commitsum/cli/internal/summarize"
	"commitsum/cli/internal/trace"
	"commitsum/cli/internal/version"
)

// errExit is an error that carries an exit code for the CLI. Use errors.As to detect it.
type errExit int

func (e errExit) Error() string {
	return "exit " + strconv.Itoa(int(e))
}

// app holds the process streams and environment so tests can run the CLI in
// isolation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	env    []string
}

func main() {
	os.Exit(Run())
}

// Run is the entry point for the CLI.
func Run() int {
	return runCLI(os.Args[1:])
}

func runCLI(args []string) int {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, env: os.Environ()}
	return a.run(args)
}

func (a *app) run(args []string) int {
	rootCmd := a.newRootCmd()
	rootCmd.AddCommand(a.newDoctorCmd())
	rootCmd.AddCommand(a.newLanguagesCmd())
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.SetArgs(args)
	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	if err := rootCmd.Execute(); err != nil {
		var exitErr errExit
		if errors.As(err, &exitErr) {
			return int(exitErr)
		}
		output.New(a.stdout, a.stderr).Error(err)
		return 1
	}
	return 0
}

func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commitsum",
		Short: "Generate a commit message from pending changes",
		Long: `commitsum reads the staged diff (or the unstaged one with --unstaged),
classifies the change and prints a commit message in the chosen style and
language. Style "ai" asks a text-generation backend to phrase the message
and falls back to the descriptive style when it cannot.`,
		Version: version.String(),
		Args:    cobra.NoArgs,
		RunE:    a.runSummarize,
	}
	addConfigFlags(cmd)
	f := cmd.Flags()
	f.StringP("style", "s", "", "Message style: descriptive, conventional or ai (overrides config and env)")
	f.StringP("language", "l", "", "Message language code, e.g. en, fr, es, de (overrides config and env)")
	f.BoolP("unstaged", "u", false, "Describe unstaged changes instead of staged ones")
	f.BoolP("commit", "c", false, "Create the commit with the generated message")
	f.StringP("model", "m", "", "Model for style ai (default depends on the provider)")
	f.Duration("timeout", 0, "Timeout for the AI call, e.g. 20s (overrides config and env)")
	f.Bool("scope", false, "Add the common top-level directory as the conventional scope")
	f.Bool("no-body", false, "Omit the list of changed files under the summary")
	f.String("diff-file", "", "Read the diff from a file instead of git (- for stdin)")
	f.String("hook", "", "Write the message into a prepare-commit-msg file instead of printing it")
	f.Bool("json", false, "Print the result as JSON")
	f.Bool("trace", false, "Print internal steps to stderr (records, facts, rule, prompt, response)")
	f.BoolP("verbose", "v", false, "Debug logging on stderr")
	return cmd
}

// addConfigFlags registers the flags every command that loads config shares.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("provider", "p", "", "AI provider: openai, gemini, bedrock, ollama or genai:<name>")
	cmd.Flags().String("config", "", "Global config file (default: <user config dir>/commitsum/config.toml)")
}

func stringOverride(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func boolOverride(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

// loadConfig finds the repository (optional) and loads layered config.
func (a *app) loadConfig(cmd *cobra.Command, o *config.Overrides) (*config.Config, string, error) {
	if o == nil {
		o = &config.Overrides{}
	}
	o.Provider = stringOverride(cmd, "provider")
	globalPath, _ := cmd.Flags().GetString("config")
	repoRoot := ""
	if cwd, err := os.Getwd(); err == nil {
		if r, err := git.RepoRoot(cwd); err == nil {
			repoRoot = r
		}
	}
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{
		RepoRoot:         repoRoot,
		GlobalConfigPath: globalPath,
		Env:              a.env,
		Overrides:        o,
	})
	if err != nil {
		return nil, "", err
	}
	return cfg, repoRoot, nil
}

func (a *app) catalog(cfg *config.Config, log *zap.Logger) *render.Catalog {
	catalog := render.NewCatalog()
	if err := catalog.LoadDir(cfg.EffectiveLocalesDir()); err != nil {
		log.Warn("some locale packs were skipped", zap.Error(err))
	}
	return catalog
}

func (a *app) runSummarize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	unstaged, _ := cmd.Flags().GetBool("unstaged")
	diffFile, _ := cmd.Flags().GetString("diff-file")
	hookPath, _ := cmd.Flags().GetString("hook")
	jsonOut, _ := cmd.Flags().GetBool("json")
	traceOn, _ := cmd.Flags().GetBool("trace")
	verbose, _ := cmd.Flags().GetBool("verbose")

	o := &config.Overrides{
		Style:    stringOverride(cmd, "style"),
		Language: stringOverride(cmd, "language"),
		Model:    stringOverride(cmd, "model"),
		Commit:   boolOverride(cmd, "commit"),
		Scope:    boolOverride(cmd, "scope"),
	}
	if cmd.Flags().Changed("timeout") {
		d, _ := cmd.Flags().GetDuration("timeout")
		o.Timeout = &d
	}
	if noBody, _ := cmd.Flags().GetBool("no-body"); noBody {
		body := false
		o.Body = &body
	}
	cfg, repoRoot, err := a.loadConfig(cmd, o)
	if err != nil {
		return err
	}

	log := logging.NewWithWriter(a.stderr, verbose)
	defer func() { _ = log.Sync() }()
	var tracer *trace.Tracer
	if traceOn {
		tracer = trace.New(a.stderr)
	}
	printer := output.New(a.stdout, a.stderr)

	src := git.SourceStaged
	if unstaged {
		src = git.SourceUnstaged
	}
	if cfg.Commit && hookPath != "" {
		return erruser.WithHint("--hook cannot be combined with --commit.", "git is already committing when the hook runs; drop --commit (or set commit = false for the hook).", nil)
	}
	if cfg.Commit && (diffFile != "" || unstaged) {
		return erruser.WithHint("--commit records staged changes only.", "Stage the changes with git add and run without --unstaged or --diff-file.", nil)
	}

	in := summarize.Input{Style: render.Style(cfg.Style), Language: cfg.Language}
	switch {
	case diffFile != "":
		text, err := a.readDiff(diffFile)
		if err != nil {
			return err
		}
		in.Diff = text
		if repoRoot != "" {
			in.Branch, _ = git.Branch(repoRoot)
			in.Recent, _ = git.RecentSubjects(repoRoot, git.DefaultRecent)
		}
	case repoRoot == "":
		return erruser.WithHint("This directory is not inside a Git repository.",
			"Run commitsum inside a repository, or pass --diff-file.", nil)
	default:
		changes, err := git.Gather(ctx, repoRoot, src, git.DefaultRecent)
		if err != nil {
			return err
		}
		in.Diff, in.Changes, in.Branch, in.Recent = changes.Diff, changes.NameStatus, changes.Branch, changes.Recent
	}

	catalog := a.catalog(cfg, log)
	renderer := render.New(catalog, render.Options{Scope: cfg.Scope, Body: cfg.Body})
	conv := cfg.FactConventions()
	p := &summarize.Pipeline{
		Extractor: facts.NewExtractor(facts.Options{Conventions: &conv}),
		Classifier: classify.New(classify.Options{
			RefactorRatio: cfg.RefactorRatio,
			FixKeywords:   cfg.FixKeywords,
			PerfKeywords:  cfg.PerfKeywords,
		}),
		Renderer:        renderer,
		ExcludePatterns: cfg.ExcludePatterns,
		Logger:          log,
		Tracer:          tracer,
	}
	var genErr error
	if in.Style == render.StyleAI {
		gen, err := llm.New(ctx, cfg.LLMSettings())
		if err != nil {
			genErr = err
		}
		p.Adapter = &delegate.Adapter{
			Generator:    gen,
			Renderer:     renderer,
			Timeout:      cfg.Timeout,
			Model:        cfg.Model,
			MaxTokens:    cfg.MaxTokens,
			Temperature:  cfg.Temperature,
			ContextLimit: cfg.ContextLimit,
			Logger:       log,
			Tracer:       tracer,
		}
	}

	res, err := p.Run(ctx, in)
	if errors.Is(err, summarize.ErrNoChanges) {
		hint := "Stage changes with git add, or use --unstaged."
		if unstaged {
			hint = "Edit tracked files first, or drop --unstaged to describe staged changes."
		}
		return erruser.WithHint("Nothing to summarize: no changes found.", hint, err)
	}
	if err != nil {
		return err
	}
	if res.Fallback {
		reason := res.FallbackErr
		if genErr != nil {
			reason = genErr
		}
		printer.Warn("AI generation failed (%v); using the descriptive message.", reason)
	}

	text := res.Message.String()
	if hookPath != "" {
		wrote, err := git.WriteHook(hookPath, text)
		if err != nil {
			return err
		}
		if !wrote {
			log.Debug("commit message file already has a message", zap.String("path", hookPath))
		}
		return nil
	}

	committed := false
	if cfg.Commit {
		if err := git.Commit(ctx, repoRoot, text); err != nil {
			return err
		}
		committed = true
	}
	if jsonOut {
		report := output.NewReport(res)
		report.Committed = committed
		return printer.JSON(report)
	}
	printer.Analysis(res)
	printer.Message(res.Message)
	if committed {
		printer.Info("Committed.")
	}
	return nil
}

func (a *app) readDiff(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", erruser.New("Could not read the diff.", err)
	}
	return string(data), nil
}

func (a *app) newLanguagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the message languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := a.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			catalog := a.catalog(cfg, logging.NewWithWriter(a.stderr, false))
			for _, code := range catalog.Codes() {
				loc, _ := catalog.Locale(code)
				fmt.Fprintf(a.stdout, "%-4s %s\n", code, loc.Name)
			}
			return nil
		},
	}
	addConfigFlags(cmd)
	return cmd
}

func (a *app) newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verify environment (Git, config, AI provider)",
		Args:  cobra.NoArgs,
		RunE:  a.runDoctor,
	}
	addConfigFlags(cmd)
	return cmd
}

func (a *app) runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, repoRoot, err := a.loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	if repoRoot != "" {
		fmt.Fprintf(a.stdout, "Git repository: %s\n", repoRoot)
	} else {
		fmt.Fprintln(a.stdout, "Git repository: none (use --diff-file)")
	}
	model := llm.ModelFor(cfg.Provider, cfg.Model)
	fmt.Fprintf(a.stdout, "Style: %s  Language: %s\n", cfg.Style, cfg.Language)
	fmt.Fprintf(a.stdout, "Provider: %s  Model: %s\n", cfg.Provider, model)

	ctx := cmd.Context()
	if cfg.Provider == llm.ProviderOllama {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		result, err := ollama.NewClient(cfg.OllamaBaseURL, nil).Check(ctx, model)
		if err != nil {
			if errors.Is(err, ollama.ErrUnreachable) {
				fmt.Fprintf(a.stderr, "Ollama unreachable at %s. Is the server running? For local: ollama serve.\n", cfg.OllamaBaseURL)
				fmt.Fprintf(a.stderr, "Details: %v\n", err)
				return errExit(2)
			}
			if errors.Is(err, ollama.ErrBadRequest) {
				fmt.Fprintf(a.stderr, "Ollama bad request at %s. %v\n", cfg.OllamaBaseURL, err)
				return errExit(2)
			}
			fmt.Fprintln(a.stderr, err.Error())
			return errExit(1)
		}
		if !result.ModelPresent {
			fmt.Fprintf(a.stderr, "Model %q not found. Pull it with: ollama pull %s\n", model, model)
			return errExit(1)
		}
		fmt.Fprintln(a.stdout, "Ollama OK")
		return nil
	}
	if _, err := llm.New(ctx, cfg.LLMSettings()); err != nil {
		fmt.Fprintf(a.stderr, "Provider %s unavailable: %v\n", cfg.Provider, err)
		fmt.Fprintln(a.stderr, "Style ai will fall back to descriptive messages.")
		return errExit(1)
	}
	fmt.Fprintf(a.stdout, "Provider %s OK\n", cfg.Provider)
	return nil
}
