package models

// FileEntry is a regular file recorded by a catalog
type FileEntry struct {
	// Path is the absolute path; it identifies the entry
	Path string

	// RelativePath is the path relative to the cataloged root
	RelativePath string

	// Size in bytes
	Size uint64
}

// Side indicates which tree a file belongs to
type Side string

const (
	// SideTarget is the tree whose files stay untouched and become link targets
	SideTarget Side = "target"
	// SideDestination is the tree whose duplicates are replaced by links
	SideDestination Side = "destination"
)

// FileMatch asserts that the destination file at LinkPath is byte-identical
// to the target file at TargetPath
type FileMatch struct {
	TargetPath string
	LinkPath   string

	// LinkRelativePath is LinkPath relative to the destination root
	LinkRelativePath string

	// Size of both files in bytes
	Size uint64
}

// MatchSet holds the matches of one run. Each LinkPath appears at most once.
type MatchSet []FileMatch

// TotalBytes returns the combined size of all matched destination files
func (s MatchSet) TotalBytes() uint64 {
	var total uint64
	for _, m := range s {
		total += m.Size
	}
	return total
}

// LinkStatus is the outcome of replacing one matched file
type LinkStatus string

const (
	// LinkPending means the replacement has not run yet
	LinkPending LinkStatus = "pending"
	// LinkCreated means the destination file is now a symlink
	LinkCreated LinkStatus = "linked"
	// LinkFailed means the symlink could not be created; the original file is back in place
	LinkFailed LinkStatus = "failed"
	// LinkStranded means both the link and the rollback failed; the original sits at the temp path
	LinkStranded LinkStatus = "stranded"
	// LinkSkipped means the replacement was not attempted (dry run or cancellation)
	LinkSkipped LinkStatus = "skipped"
)
