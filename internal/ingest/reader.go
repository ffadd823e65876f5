package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/qepting91/reddit-conversations/internal/domain"
)

// Regex for valid subreddit names
var subNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// LoadTargets reads a subreddit,min_score[,category] CSV with a header row.
// Invalid rows are skipped.
func LoadTargets(path string) ([]domain.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTargets(f)
}

// ReadTargets is LoadTargets over an open reader.
func ReadTargets(rd io.Reader) ([]domain.Target, error) {
	// Wrap in BOM stripper
	r := csv.NewReader(stripBOM(rd))
	r.FieldsPerRecord = -1

	var targets []domain.Target
	line := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, fmt.Errorf("read targets: %w", err)
		}
		line++
		if line == 1 {
			continue // header
		}

		// Validation (Fail-Soft)
		sub := normalizeSubreddit(record[0])
		if !subNameRegex.MatchString(sub) {
			continue
		}

		t := domain.Target{Subreddit: sub}
		if len(record) > 1 {
			t.MinScore, _ = strconv.Atoi(strings.TrimSpace(record[1]))
		}
		if len(record) > 2 {
			t.Category = strings.ToLower(strings.TrimSpace(record[2]))
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func normalizeSubreddit(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimPrefix(s, "r/")
	return s
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
