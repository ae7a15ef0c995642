package microbiogeo

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"
)

// WriteFileAtomic calls write with a buffered writer backed by a temporary
// file next to path, and renames it into place only if write succeeded. A
// failed write never leaves a partial file at path.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return pfx.Err(err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		tmp.Close()
		return err
	}

	if err := bw.Flush(); err != nil {
		tmp.Close()
		return pfx.Err(err)
	}

	if err := tmp.Close(); err != nil {
		return pfx.Err(err)
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return pfx.Err(err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return pfx.Err(err)
	}

	return nil
}
