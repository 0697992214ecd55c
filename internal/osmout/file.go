package osmout

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// IOError reports a failed file operation on an output path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// WriteFile encodes doc into path. A cancelled or failed write never leaves
// a partial file under path.
func WriteFile(ctx context.Context, path string, doc *Document, opts WriteOptions) error {
	return WriteAtomic(ctx, path, func(w io.Writer) error {
		return Encode(w, doc, opts)
	})
}

// WriteAtomic streams write into a pending file next to path and moves it
// into place only after write succeeded and ctx is still live.
func WriteAtomic(ctx context.Context, path string, write func(io.Writer) error) error {
	pf, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(filepath.Dir(path)),
		renameio.WithPermissions(0o644))
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	defer pf.Cleanup()

	if err := write(pf); err != nil {
		return &IOError{Op: "write", Path: pf.Name(), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
