package wp

import "context"

// StagedFile is one file copied into the scratch area.
type StagedFile struct {
	Name string // path relative to the content root, slash separated
	Path string // absolute path of the staged copy
}

// StagedInputs describes the scratch area after staging.
type StagedInputs struct {
	ScratchDir string
	ContentDir string
	Files      []StagedFile // stager traversal order
	IconPath   string       // empty when no icon was staged
	Entry      string       // bundled file name the launcher opens in FILE mode
}

// Stager copies a request's inputs into a scratch directory.
type Stager interface {
	Stage(ctx context.Context, req *PackagingRequest, scratchDir string) (*StagedInputs, error)
}
