// Package link replaces matched destination files with symbolic links
package link

import (
	"context"
	stderrors "errors"
	"io/fs"

	"github.com/sdejongh/dirlink/pkg/errors"
	"github.com/sdejongh/dirlink/pkg/logging"
	"github.com/sdejongh/dirlink/pkg/models"
	"github.com/sdejongh/dirlink/pkg/storage"
)

// DefaultTempSuffix is appended to a file while its link is being created
const DefaultTempSuffix = "~"

// Options controls how replaced files are disposed of
type Options struct {
	TempSuffix string
	UseTrash   bool // move replaced files to the trash instead of deleting them
}

// Replacer swaps one destination file for a symlink to its target.
//
// The file is first renamed to a temporary name, then the link is created.
// If the link cannot be created the rename is undone. Only once the link
// stands is the renamed file trashed or deleted.
type Replacer struct {
	dest   storage.Backend
	opts   Options
	logger logging.Logger
}

// NewReplacer creates a replacer operating on the destination backend
func NewReplacer(dest storage.Backend, opts Options, logger logging.Logger) *Replacer {
	if opts.TempSuffix == "" {
		opts.TempSuffix = DefaultTempSuffix
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Replacer{dest: dest, opts: opts, logger: logger}
}

// TempPath returns the rollback location used for linkPath
func (r *Replacer) TempPath(linkPath string) string {
	return linkPath + r.opts.TempSuffix
}

// Replace runs the link protocol for one match. On failure the returned
// status tells whether the original file is back in place (LinkFailed) or
// stranded at its temporary path (LinkStranded).
func (r *Replacer) Replace(ctx context.Context, match models.FileMatch) (models.LinkStatus, error) {
	temp := r.TempPath(match.LinkPath)
	fields := logging.Fields{"link": match.LinkPath, "target": match.TargetPath}

	if err := r.check(ctx, match); err != nil {
		r.logger.Warn(ctx, "Match no longer valid, file left untouched", fields)
		return models.LinkFailed, err
	}

	exists, err := r.dest.Exists(ctx, temp)
	if err != nil {
		return models.LinkFailed, linkError(err, match, "cannot check temporary path %s", temp)
	}
	if exists {
		return models.LinkFailed, linkError(nil, match, "temporary path %s already exists", temp)
	}

	if err := r.dest.Rename(ctx, match.LinkPath, temp); err != nil {
		if stderrors.Is(err, fs.ErrExist) {
			return models.LinkFailed, linkError(err, match, "temporary path %s already exists", temp)
		}
		return models.LinkFailed, linkError(err, match, "cannot move %s aside", match.LinkPath)
	}

	if err := r.dest.Symlink(ctx, match.TargetPath, match.LinkPath); err != nil {
		if rbErr := r.dest.Rename(ctx, temp, match.LinkPath); rbErr != nil {
			r.logger.Error(ctx, "Rollback failed, original file left at temporary path", rbErr, logging.Fields{
				"link": match.LinkPath,
				"temp": temp,
			})
			return models.LinkStranded, linkError(stderrors.Join(err, rbErr), match,
				"cannot create link and rollback failed; original file is at %s", temp).
				WithDetail("temp_path", temp)
		}

		r.logger.Warn(ctx, "Link creation failed, original file restored", fields)
		return models.LinkFailed, linkError(err, match, "cannot create link %s", match.LinkPath)
	}

	r.dispose(ctx, temp)
	return models.LinkCreated, nil
}

// check verifies that the destination file is still the regular file that
// was matched and that it is not the target itself under another name.
func (r *Replacer) check(ctx context.Context, match models.FileMatch) error {
	info, err := r.dest.Stat(ctx, match.LinkPath)
	if err != nil {
		return linkError(err, match, "cannot stat %s", match.LinkPath)
	}
	if !info.IsRegular() {
		return linkError(nil, match, "%s is no longer a regular file", match.LinkPath)
	}
	if info.Size < 0 || uint64(info.Size) != match.Size {
		return linkError(nil, match, "%s changed size since it was matched (%d, was %d)",
			match.LinkPath, info.Size, match.Size)
	}

	same, err := r.dest.SameFile(ctx, match.TargetPath, match.LinkPath)
	if err != nil {
		return linkError(err, match, "cannot compare %s with its target", match.LinkPath)
	}
	if same {
		return linkError(nil, match, "%s and %s are the same file", match.LinkPath, match.TargetPath)
	}
	return nil
}

// dispose removes the file that was moved aside. A leftover temp file is
// logged but does not fail the replacement since the link already stands.
func (r *Replacer) dispose(ctx context.Context, temp string) {
	if r.opts.UseTrash {
		err := r.dest.Trash(ctx, temp)
		if err == nil {
			return
		}
		if !stderrors.Is(err, storage.ErrNoTrash) && !stderrors.Is(err, storage.ErrCrossDevice) {
			r.logger.Warn(ctx, "Cannot trash replaced file, leaving it in place", logging.Fields{
				"temp":  temp,
				"error": err.Error(),
			})
			return
		}
		r.logger.Debug(ctx, "Trash unavailable, deleting replaced file", logging.Fields{"temp": temp, "reason": err.Error()})
	}

	if err := r.dest.Remove(ctx, temp); err != nil {
		r.logger.Warn(ctx, "Cannot delete replaced file, leaving it in place", logging.Fields{
			"temp":  temp,
			"error": err.Error(),
		})
	}
}

func linkError(cause error, match models.FileMatch, format string, args ...interface{}) *errors.DirlinkError {
	var err *errors.DirlinkError
	if cause == nil {
		err = errors.Newf(errors.ErrLinkCreationFailed, format, args...)
	} else {
		err = errors.Wrapf(cause, errors.ErrLinkCreationFailed, format, args...)
	}
	return err.
		WithDetail("link_path", match.LinkPath).
		WithDetail("target_path", match.TargetPath)
}
