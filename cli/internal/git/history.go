package git

import (
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// ErrNoGit is returned when the directory is not a git repository.
var ErrNoGit = errors.New("not a git repository")

func open(repoRoot string) (*gogit.Repository, error) {
	r, err := gogit.PlainOpenWithOptions(repoRoot, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	return r, nil
}

// Branch returns the current branch name, or "" when HEAD is detached. A
// repository without commits still reports the branch HEAD points to.
func Branch(repoRoot string) (string, error) {
	r, err := open(repoRoot)
	if err != nil {
		return "", err
	}
	ref, err := r.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
		return ref.Target().Short(), nil
	}
	return "", nil
}

// RecentSubjects returns the first line of up to n commits reachable from
// HEAD, newest first. An unborn HEAD yields no subjects.
func RecentSubjects(repoRoot string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	r, err := open(repoRoot)
	if err != nil {
		return nil, err
	}
	head, err := r.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting HEAD: %w", err)
	}
	iter, err := r.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	defer iter.Close()
	var out []string
	err = iter.ForEach(func(c *object.Commit) error {
		subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
		out = append(out, strings.TrimSpace(subject))
		if len(out) == n {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	return out, nil
}
