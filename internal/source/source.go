// Package source fetches curriculum data files from a git repository.
package source

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/syllabi/internal/config"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
)

// Paths are the data files to read after a sync.
type Paths struct {
	Curriculum string
	Lecturers  string
	// Commit is the checked out commit, empty when no repository is configured.
	Commit string
}

// Sync makes the configured data files available locally. Without a repository the
// configured paths are returned unchanged. Otherwise the repository is cloned into
// its directory, or pulled when a checkout already exists, and the data paths are
// resolved relative to the checkout.
func Sync(ctx context.Context, data config.DataConfig) (Paths, error) {
	repo := data.Repository
	if repo == nil {
		return Paths{Curriculum: data.Curriculum, Lecturers: data.Lecturers}, nil
	}

	var (
		commit string
		err    error
	)
	if _, statErr := os.Stat(filepath.Join(repo.Dir, ".git")); statErr == nil {
		commit, err = pull(ctx, repo)
	} else {
		commit, err = clone(ctx, repo)
	}
	if err != nil {
		return Paths{}, err
	}
	return Paths{
		Curriculum: within(repo.Dir, data.Curriculum),
		Lecturers:  within(repo.Dir, data.Lecturers),
		Commit:     commit,
	}, nil
}

func within(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func clone(ctx context.Context, repo *config.RepositoryConfig) (string, error) {
	slog.Debug("Cloning data repository", logfields.URL(repo.URL), slog.String("branch", repo.Branch), logfields.File(repo.Dir))

	if err := os.RemoveAll(repo.Dir); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to remove existing checkout").
			WithContext("dir", repo.Dir).
			Build()
	}

	opts := &git.CloneOptions{
		URL:           repo.URL,
		ReferenceName: plumbing.NewBranchReferenceName(repo.Branch),
		SingleBranch:  true,
		Auth:          authFor(repo),
	}
	// The local transport serves full histories only.
	if !isLocal(repo.URL) {
		opts.Depth = 1
	}

	r, err := git.PlainCloneContext(ctx, repo.Dir, false, opts)
	if err != nil {
		return "", classify(err, "clone", repo.URL)
	}
	commit := headCommit(r)
	slog.Info("Data repository cloned", logfields.URL(repo.URL), slog.String("commit", short(commit)))
	return commit, nil
}

func pull(ctx context.Context, repo *config.RepositoryConfig) (string, error) {
	slog.Debug("Updating data repository", logfields.URL(repo.URL), logfields.File(repo.Dir))

	r, err := git.PlainOpen(repo.Dir)
	if err != nil {
		return "", classify(err, "open", repo.URL)
	}
	wt, err := r.Worktree()
	if err != nil {
		return "", classify(err, "worktree", repo.URL)
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    git.DefaultRemoteName,
		ReferenceName: plumbing.NewBranchReferenceName(repo.Branch),
		SingleBranch:  true,
		Auth:          authFor(repo),
	})
	switch {
	case stderrors.Is(err, git.NoErrAlreadyUpToDate):
		slog.Info("Data repository already up to date", logfields.URL(repo.URL))
	case err != nil:
		return "", classify(err, "pull", repo.URL)
	default:
		slog.Info("Data repository updated", logfields.URL(repo.URL), slog.String("commit", short(headCommit(r))))
	}
	return headCommit(r), nil
}

func authFor(repo *config.RepositoryConfig) transport.AuthMethod {
	if repo.Token == "" {
		return nil
	}
	return &http.BasicAuth{Username: repo.Username, Password: repo.Token}
}

func isLocal(u string) bool {
	return !strings.Contains(u, "://") || strings.HasPrefix(u, "file://")
}

func headCommit(r *git.Repository) string {
	ref, err := r.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}

func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

// classify translates go-git errors into classified errors.
func classify(err error, op, url string) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	category := errors.CategoryInternal
	retryable := false
	switch {
	case stderrors.Is(err, transport.ErrAuthenticationRequired), stderrors.Is(err, transport.ErrAuthorizationFailed):
		category = errors.CategoryAuth
	case stderrors.Is(err, transport.ErrRepositoryNotFound), stderrors.Is(err, git.ErrRepositoryNotExists),
		stderrors.Is(err, plumbing.ErrReferenceNotFound):
		category = errors.CategoryNotFound
	default:
		l := strings.ToLower(err.Error())
		switch {
		case strings.Contains(l, "couldn't find remote ref"), strings.Contains(l, "not found"):
			category = errors.CategoryNotFound
		case strings.Contains(l, "connection reset"), strings.Contains(l, "timeout"), strings.Contains(l, "no route to host"),
			strings.Contains(l, "connection refused"), strings.Contains(l, "remote hung up"):
			category, retryable = errors.CategoryNetwork, true
		case strings.Contains(l, "non-fast-forward"), strings.Contains(l, "diverged"):
			category = errors.CategoryValidation
		}
	}

	b := errors.WrapError(err, category, "data repository "+op+" failed").
		WithContext("op", op).
		WithContext("url", url)
	if retryable {
		b = b.Retryable()
	}
	return b.Build()
}
