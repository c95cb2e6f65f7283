package service

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	perr "marketwatch/internal/platform/errors"
	"marketwatch/internal/services/api/watch/domain"
)

// markers of warn-and-above lines in both the json and console log formats
var errorMarkers = []string{
	`"level":"warn"`, `"level":"error"`, `"level":"fatal"`, `"level":"panic"`,
	" WRN ", " ERR ", " FTL ", " PNC ",
}

// Logs returns the last matching lines of the active log file, oldest first
func (s *Svc) Logs(ctx context.Context, q domain.LogQuery) (domain.LogTail, error) {
	path := s.cfg.LogPath()
	if path == "" {
		return domain.LogTail{}, perr.NotFoundf("file logging is disabled; set LOG_FILE")
	}

	limit := domain.MaxLogLines
	if q.Pattern != "" || q.ErrorsOnly {
		limit = domain.MaxSearchLines
	}
	n := q.Lines
	switch {
	case n <= 0:
		n = domain.DefaultLogLines
	case n > limit:
		n = limit
	}

	lines, err := tail(ctx, path, n, matcher(q))
	if err != nil {
		return domain.LogTail{}, err
	}
	return domain.LogTail{File: path, Lines: lines}, nil
}

func matcher(q domain.LogQuery) func(string) bool {
	pat := strings.ToLower(q.Pattern)
	return func(line string) bool {
		if pat != "" && !strings.Contains(strings.ToLower(line), pat) {
			return false
		}
		if q.ErrorsOnly {
			for _, m := range errorMarkers {
				if strings.Contains(line, m) {
					return true
				}
			}
			return false
		}
		return true
	}
}

// tail scans path once and keeps the last n lines accepted by keep in a ring
func tail(ctx context.Context, path string, n int, keep func(string) bool) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "open log file")
	}
	defer f.Close()

	ring := make([]string, n)
	count, scanned := 0, 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		scanned++
		if scanned%4096 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		line := sc.Text()
		if !keep(line) {
			continue
		}
		ring[count%n] = line
		count++
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "read log file")
	}

	if count <= n {
		return ring[:count], nil
	}
	start := count % n
	return append(ring[start:], ring[:start]...), nil
}
