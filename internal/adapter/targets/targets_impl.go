package targets

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/user/auction-watch/internal/repository"
)

// ErrNoTargets is returned when the target list is empty.
var ErrNoTargets = errors.New("no target urls configured")

// Static is a fixed list of URLs.
type Static []string

func (s Static) List(context.Context) ([]string, error) {
	if len(s) == 0 {
		return nil, ErrNoTargets
	}
	return append([]string(nil), s...), nil
}

// File reads one URL per line. Blank lines and lines starting with '#' are
// skipped. The file is re-read on every call so edits apply to the next pass.
type File struct {
	Path string
}

func (f File) List(context.Context) ([]string, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer fh.Close()

	var urls []string
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	if len(urls) == 0 {
		return nil, ErrNoTargets
	}
	return urls, nil
}

// Combined concatenates the URLs of several sources, skipping empty ones.
type Combined []repository.TargetRepository

func (c Combined) List(ctx context.Context) ([]string, error) {
	var urls []string
	for _, src := range c {
		list, err := src.List(ctx)
		if errors.Is(err, ErrNoTargets) {
			continue
		}
		if err != nil {
			return nil, err
		}
		urls = append(urls, list...)
	}
	if len(urls) == 0 {
		return nil, ErrNoTargets
	}
	return urls, nil
}
