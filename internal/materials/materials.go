package materials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/coursetools/courseup/internal/config"
)

// Checkout manages a course materials working copy on disk.
type Checkout struct {
	URL         string
	Destination string
	Branch      string
	Depth       int
}

// NewCheckout builds a Checkout from a repo capability.
func NewCheckout(cfg config.RepoCapability) Checkout {
	return Checkout{
		URL:         cfg.URL,
		Destination: cfg.Destination,
		Branch:      cfg.Branch,
		Depth:       cfg.Depth,
	}
}

// Present reports whether the destination already holds a cleanly openable
// repository. A directory that exists but is not a repository counts as
// absent so a clone attempt can surface the real problem.
func (c Checkout) Present() (bool, error) {
	info, err := os.Stat(c.Destination)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("cannot access destination: %w", err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("destination %s exists and is not a directory", c.Destination)
	}

	if _, err := os.Stat(filepath.Join(c.Destination, ".git")); err != nil {
		return false, nil
	}

	if _, err := git.PlainOpen(c.Destination); err != nil {
		return false, nil
	}
	return true, nil
}

// Clone fetches the materials repository into the destination.
func (c Checkout) Clone(ctx context.Context) error {
	opts := &git.CloneOptions{
		URL:      c.URL,
		Progress: os.Stderr,
	}
	if c.Depth > 0 {
		opts.Depth = c.Depth
	}
	if c.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(c.Branch)
		opts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, c.Destination, false, opts); err != nil {
		return fmt.Errorf("clone %s: %w", c.URL, err)
	}
	return nil
}
