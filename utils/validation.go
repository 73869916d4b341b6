package utils

import (
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/mgijax/wts/errors"
)

// CleanRecordNumber parses a tracking record number as users type it,
// ignoring any 'T', 'R' and space characters, so "TR 1241", "tr1241" and
// "1241" all give 1241.
func CleanRecordNumber(s string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case 'T', 't', 'R', 'r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return 0, apperrors.WrapErrorf(apperrors.ErrInvalidInput, "empty record number %q", s)
	}

	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || n < 1 {
		return 0, apperrors.WrapErrorf(apperrors.ErrInvalidInput, "invalid record number %q", s)
	}
	return n, nil
}

// ParseRecordList parses a comma separated list of record numbers such as
// "TR 12, (TR 15), 7". Parentheses are ignored, duplicates are dropped and
// the result is sorted. An empty or blank list gives no ids.
func ParseRecordList(s string) ([]int64, error) {
	s = strings.NewReplacer("(", " ", ")", " ").Replace(s)

	seen := make(map[int64]bool)
	var ids []int64
	for _, field := range strings.Split(s, ",") {
		if strings.TrimSpace(field) == "" {
			continue
		}
		id, err := CleanRecordNumber(field)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
