package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/arloliu/blockpress/errs"
)

// statusReader tags read failures of the input with StatusReadFile.
type statusReader struct {
	r io.Reader
}

func (s statusReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = ioError(StatusReadFile, "read input", err)
	}

	return n, err
}

// statusWriter tags write failures of the output with StatusWriteFile.
type statusWriter struct {
	w io.Writer
}

func (s statusWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		err = ioError(StatusWriteFile, "write output", err)
	}

	return n, err
}

// checkOutput rejects an output that cannot be used, before anything is opened.
func checkOutput(cfg Config) error {
	if cfg.Output == NameStdout || cfg.Output == NameNone {
		return nil
	}

	if cfg.Input != NameStdin {
		inAbs, inErr := filepath.Abs(cfg.Input)
		outAbs, outErr := filepath.Abs(cfg.Output)
		if inErr == nil && outErr == nil && inAbs == outAbs {
			return fmt.Errorf("%w: %s", errs.ErrSameInputOutput, cfg.Output)
		}
	}

	info, err := os.Stat(cfg.Output)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return ioError(StatusCreateFile, "stat output", err)
	}

	if info.IsDir() {
		return fmt.Errorf("%w: %s", errs.ErrOutputIsDir, cfg.Output)
	}

	if !cfg.Overwrite {
		return fmt.Errorf("%w: %s", errs.ErrOverwrite, cfg.Output)
	}

	if cfg.Input != NameStdin {
		if inInfo, err := os.Stat(cfg.Input); err == nil && os.SameFile(inInfo, info) {
			return fmt.Errorf("%w: %s", errs.ErrSameInputOutput, cfg.Output)
		}
	}

	return nil
}

// openInput opens the input. The returned closer is nil for STDIN.
func openInput(name string, stdin io.Reader) (io.Reader, io.Closer, error) {
	if name == NameStdin {
		return statusReader{r: stdin}, nil, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, nil, ioError(StatusOpenFile, "open input", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, ioError(StatusOpenFile, "open input", err)
	}

	if info.IsDir() {
		_ = f.Close()
		return nil, nil, ioError(StatusOpenFile, "open input", fmt.Errorf("%s is a directory", name))
	}

	return statusReader{r: f}, f, nil
}

// createOutput creates or truncates the output. The returned closer is nil for
// STDOUT and NONE.
func createOutput(name string, stdout io.Writer) (io.Writer, io.Closer, error) {
	switch name {
	case NameNone:
		return io.Discard, nil, nil
	case NameStdout:
		return statusWriter{w: stdout}, nil, nil
	}

	f, err := os.Create(name)
	if err != nil {
		return nil, nil, ioError(StatusCreateFile, "create output", err)
	}

	return statusWriter{w: f}, f, nil
}
