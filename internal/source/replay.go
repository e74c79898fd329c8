package source

import (
	"errors"
	"io"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// Sample reads up to n rows from it.
// The returned error is nil when the source simply ran out of rows.
func Sample(it core.RowIterator, n int) ([]core.Row, error) {
	rows := make([]core.Row, 0, n)
	for len(rows) < n {
		row, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Replay yields the already-consumed head rows first and then continues
// with rest. It lets a sample taken for inference still be loaded.
func Replay(head []core.Row, rest core.RowIterator) core.RowIterator {
	return &replay{head: head, rest: rest}
}

type replay struct {
	head []core.Row
	rest core.RowIterator
}

func (r *replay) Next() (core.Row, error) {
	if len(r.head) > 0 {
		row := r.head[0]
		r.head = r.head[1:]
		return row, nil
	}
	if r.rest == nil {
		return nil, io.EOF
	}
	return r.rest.Next()
}

// Slice returns an iterator over rows held in memory.
func Slice(rows []core.Row) core.RowIterator {
	return &replay{head: rows}
}
