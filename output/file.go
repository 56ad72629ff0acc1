package output

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/pkg/errors"
)

type FileWriter struct {
	fullPath string
}

func NewFileWriter(url *url.URL, options *Options) *FileWriter {
	var fullPath string

	if options.OutputFile == "" {
		fullPath = fmt.Sprintf("./%s", filepath.Base(url.Path))
	} else {
		fullPath = options.OutputFile
	}

	if !options.Overwrite {
		fullPath = makeNonOverlappingFilename(fullPath)
	}

	return &FileWriter{fullPath: fullPath}
}

// makeNonOverlappingFilename appends or increments a numeric suffix until
// the name no longer collides with an existing file.
func makeNonOverlappingFilename(path string) string {
	_, err := os.Stat(path)
	if err == nil {
		re := regexp.MustCompile(`\.(\d+)$`)
		newPath := re.ReplaceAllStringFunc(path, func(index string) string {
			i, err := strconv.Atoi(strings.TrimPrefix(index, "."))
			if err != nil {
				panic(err)
			}
			i++
			return fmt.Sprintf(".%d", i)
		})
		if path == newPath {
			path = fmt.Sprintf("%s.%d", path, 1)
		} else {
			path = newPath
		}
		path = makeNonOverlappingFilename(path)
	}
	return path
}

func (f *FileWriter) Download(resp *http.Response) error {
	file, err := os.Create(f.fullPath)
	if err != nil {
		return errors.Wrapf(err, "creating '%s'", f.fullPath)
	}
	defer file.Close()

	contentLength := resp.ContentLength
	if contentLength <= 0 {
		// No length to report progress against.
		_, err = io.Copy(file, resp.Body)
		return err
	}

	total := bytefmt.ByteSize(uint64(contentLength))
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return errors.Wrapf(werr, "writing '%s'", f.fullPath)
			}
			written += int64(n)
			fmt.Fprintf(os.Stderr, "\rDownloading %s: %s / %s",
				f.Filename(), bytefmt.ByteSize(uint64(written)), total)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading response body")
		}
	}
	fmt.Fprintf(os.Stderr, "\nDone. %s written to %s\n", bytefmt.ByteSize(uint64(written)), f.fullPath)
	return nil
}

func (f *FileWriter) Filename() string {
	return filepath.Base(f.fullPath)
}
