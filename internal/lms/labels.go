package lms

import (
	"cmp"
	"fmt"
	"slices"
)

type indexedLabel struct {
	name  string
	index uint32
}

// DecodeLabels reads an LBL1-style hash-bucket table and returns the label
// names ordered by the message index each one points at.
func DecodeLabels(c *Cursor) ([]string, error) {
	buckets, err := c.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read bucket count: %w", err)
	}

	var found []indexedLabel

	for b := uint32(0); b < buckets; b++ {
		count, err := c.Uint32()
		if err != nil {
			return nil, fmt.Errorf("read bucket %d: %w", b, err)
		}
		offset, err := c.Uint32()
		if err != nil {
			return nil, fmt.Errorf("read bucket %d: %w", b, err)
		}
		if count == 0 {
			continue
		}

		next := c.Pos()
		if err := c.Seek(int(offset)); err != nil {
			return nil, fmt.Errorf("bucket %d: %w", b, err)
		}

		for i := uint32(0); i < count; i++ {
			l, err := readLabel(c)
			if err != nil {
				return nil, fmt.Errorf("bucket %d label %d: %w", b, i, err)
			}
			found = append(found, l)
		}

		if err := c.Seek(next); err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(found, func(a, b indexedLabel) int {
		return cmp.Compare(a.index, b.index)
	})

	labels := make([]string, len(found))
	for i, l := range found {
		labels[i] = l.name
	}
	return labels, nil
}

func readLabel(c *Cursor) (indexedLabel, error) {
	n, err := c.Uint8()
	if err != nil {
		return indexedLabel{}, err
	}
	name, err := c.Bytes(int(n))
	if err != nil {
		return indexedLabel{}, err
	}
	index, err := c.Uint32()
	if err != nil {
		return indexedLabel{}, err
	}
	return indexedLabel{name: string(name), index: index}, nil
}
