package git

import (
	"context"

	"golang.org/x/sync/errgroup"

	"commitsum/cli/internal/diff"
)

// DefaultRecent is how many commit subjects Gather collects.
const DefaultRecent = 5

// Changes is everything read from the repository for one run.
type Changes struct {
	Diff       string
	NameStatus []diff.PathStatus
	Branch     string
	Recent     []string
}

// Gather reads the diff and name-status for src concurrently, along with the
// branch and up to recent commit subjects. Branch and history are best
// effort: a failure there leaves them empty.
func Gather(ctx context.Context, repoRoot string, src Source, recent int) (Changes, error) {
	var c Changes
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := Diff(gctx, repoRoot, src)
		c.Diff = out
		return err
	})
	g.Go(func() error {
		out, err := NameStatus(gctx, repoRoot, src)
		c.NameStatus = out
		return err
	})
	g.Go(func() error {
		c.Branch, _ = Branch(repoRoot)
		return nil
	})
	g.Go(func() error {
		c.Recent, _ = RecentSubjects(repoRoot, recent)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Changes{}, err
	}
	return c, nil
}
