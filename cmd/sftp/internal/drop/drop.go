package drop

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	CharmLog "github.com/charmbracelet/log"
	"github.com/pkg/sftp"
)

// Drop serves captured SOAP responses read-only from a root directory.
type Drop struct {
	root   string
	logger *CharmLog.Logger
}

type lister []os.FileInfo

func New(root string, loggerParent *CharmLog.Logger) (*Drop, error) {
	logger := loggerParent.WithPrefix("Capture Drop")
	if root == "" {
		return nil, fmt.Errorf("capture drop root must be set")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path of %s: %w", root, err)
	}
	abs = filepath.Clean(abs)

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("root directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}

	logger.Info("Root directory initialized", "path", abs)
	return &Drop{root: abs, logger: logger}, nil
}

func (d *Drop) Handlers() sftp.Handlers {
	return sftp.Handlers{
		FileGet:  d,
		FilePut:  d,
		FileCmd:  d,
		FileList: d,
	}
}

// resolve maps a client path into the root; ".." cannot escape it.
func (d *Drop) resolve(p string) string {
	cleanPath := path.Clean("/" + filepath.ToSlash(p))
	cleanPath = strings.TrimPrefix(cleanPath, "/")
	return filepath.Join(d.root, filepath.FromSlash(cleanPath))
}

func (d *Drop) Fileread(r *sftp.Request) (io.ReaderAt, error) {
	fullPath := d.resolve(r.Filepath)
	d.logger.Info("Reading capture", "path", fullPath)
	return os.Open(fullPath)
}

func (d *Drop) Filewrite(r *sftp.Request) (io.WriterAt, error) {
	d.logger.Warn("Refused write", "path", r.Filepath)
	return nil, sftp.ErrSshFxPermissionDenied
}

func (d *Drop) Filecmd(r *sftp.Request) error {
	d.logger.Warn("Refused command", "method", r.Method, "path", r.Filepath)
	return sftp.ErrSshFxPermissionDenied
}

func (d *Drop) Filelist(r *sftp.Request) (sftp.ListerAt, error) {
	fullPath := d.resolve(r.Filepath)

	switch r.Method {
	case "Stat":
		stat, err := os.Stat(fullPath)
		if err != nil {
			return nil, err
		}
		return lister([]os.FileInfo{stat}), nil

	case "List":
		d.logger.Info("Listing directory", "path", fullPath)
		entries, err := os.ReadDir(fullPath)
		if err != nil {
			return nil, err
		}

		var fileInfos []os.FileInfo
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				d.logger.Warn("Error reading entry", "name", entry.Name(), "error", err)
				continue
			}
			fileInfos = append(fileInfos, info)
		}
		return lister(fileInfos), nil

	default:
		return nil, sftp.ErrSshFxOpUnsupported
	}
}

// ListAt pages through the entries; io.EOF marks the last page.
func (l lister) ListAt(dst []os.FileInfo, offset int64) (int, error) {
	if offset >= int64(len(l)) {
		return 0, io.EOF
	}

	rest := l[offset:]
	n := copy(dst, rest)
	if n == len(rest) {
		return n, io.EOF
	}
	return n, nil
}
