// Package git (repo.go) runs the git commands commitsum needs: repository
// discovery, the staged or unstaged diff, name-status and commit creation.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"commitsum/cli/internal/diff"
	"commitsum/cli/internal/erruser"
)

// Source selects which changes to describe.
type Source string

const (
	// SourceStaged is the index against HEAD (git diff --cached).
	SourceStaged Source = "staged"
	// SourceUnstaged is the working tree against the index (git diff).
	SourceUnstaged Source = "unstaged"
)

// RepoRoot returns the absolute path of the git repository root containing dir.
// Runs "git rev-parse --show-toplevel" with Dir=dir. Returns error if dir is
// not inside a git repository.
func RepoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	cmd.Env = gitEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.WithHint("This directory is not inside a Git repository.",
			"Run commitsum inside a repository, or pass --diff-file.", err)
	}
	root := strings.TrimSpace(string(out))
	return filepath.Abs(root)
}

func diffArgs(src Source, extra ...string) []string {
	args := []string{"diff"}
	if src != SourceUnstaged {
		args = append(args, "--cached")
	}
	return append(args, extra...)
}

// Diff returns the unified diff for src. Colour and external diff drivers are
// disabled and renames are detected so the output parses the same everywhere.
func Diff(ctx context.Context, repoRoot string, src Source) (string, error) {
	out, err := gitOutput(ctx, repoRoot, nil, diffArgs(src, "--no-color", "--no-ext-diff", "-M")...)
	if err != nil {
		return "", erruser.New("Could not read the "+string(src)+" diff.", err)
	}
	return out, nil
}

// NameStatus returns the changed paths for src, including those git lists
// without a textual diff.
func NameStatus(ctx context.Context, repoRoot string, src Source) ([]diff.PathStatus, error) {
	out, err := gitOutput(ctx, repoRoot, nil, diffArgs(src, "--name-status", "-M", "-z")...)
	if err != nil {
		return nil, erruser.New("Could not list changed files.", err)
	}
	return parseNameStatus(out), nil
}

// parseNameStatus reads NUL-separated name-status output: a status field
// followed by one path, or two for renames and copies.
func parseNameStatus(s string) []diff.PathStatus {
	fields := strings.Split(strings.TrimRight(s, "\x00"), "\x00")
	var out []diff.PathStatus
	for i := 0; i < len(fields); {
		letter := strings.TrimSpace(fields[i])
		i++
		if letter == "" {
			continue
		}
		st := diff.ParseStatus(letter)
		if st == diff.StatusRenamed || st == diff.StatusCopied {
			if i+1 >= len(fields) {
				break
			}
			out = append(out, diff.PathStatus{OldPath: fields[i], Path: fields[i+1], Status: st})
			i += 2
			continue
		}
		if i >= len(fields) {
			break
		}
		out = append(out, diff.PathStatus{Path: fields[i], Status: st})
		i++
	}
	return out
}

// Commit records the staged changes with message ("git commit -F -").
func Commit(ctx context.Context, repoRoot, message string) error {
	if strings.TrimSpace(message) == "" {
		return erruser.New("Refusing to commit with an empty message.", nil)
	}
	if _, err := gitOutput(ctx, repoRoot, strings.NewReader(message+"\n"), "commit", "-F", "-"); err != nil {
		return erruser.WithHint("git commit failed.", "Check that changes are staged and that pre-commit hooks pass.", err)
	}
	return nil
}

// gitOutput executes git in dir and returns stdout. On failure the error carries
// git's stderr.
func gitOutput(ctx context.Context, dir string, stdin *strings.Reader, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = gitEnv()
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}

// gitOverrides turn off paging and credential prompts for captured git
// output. Colour is disabled per command with --no-color.
var gitOverrides = []string{"GIT_TERMINAL_PROMPT=0", "GIT_PAGER=cat"}

// gitEnv is the caller's environment plus gitOverrides. GIT_DIR,
// GIT_INDEX_FILE and the identity and signing variables pass through, so a
// prepare-commit-msg hook sees the index git is committing.
func gitEnv() []string {
	skip := make(map[string]bool, len(gitOverrides))
	for _, kv := range gitOverrides {
		key, _, _ := strings.Cut(kv, "=")
		skip[key] = true
	}
	var env []string
	hasHome := false
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if skip[key] {
			continue
		}
		hasHome = hasHome || key == "HOME"
		env = append(env, kv)
	}
	if !hasHome && runtime.GOOS == "windows" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			env = append(env, "HOME="+profile)
		}
	}
	return append(env, gitOverrides...)
}
