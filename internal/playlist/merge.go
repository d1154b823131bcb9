// SPDX-License-Identifier: MIT

// Package playlist merges selected channels from remote M3U playlists into a
// local playlist.
package playlist

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/senvora/epg/internal/m3u"
)

// LoadSelection reads the channel names to take over, one per line.
// Blank lines are ignored.
func LoadSelection(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open selection: %w", err)
	}
	defer func() { _ = f.Close() }()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read selection: %w", err)
	}
	return names, nil
}

// Select copies the blocks of src named in names into dst. A name already
// in dst is replaced in place, so later sources win. With maxDist > 0 a name
// without an exact match takes the closest block name within maxDist edits;
// the block is stored under the selected name. Select returns how many
// names matched.
func Select(dst, src *m3u.Blocks, names []string, maxDist int) int {
	var candidates []string
	matched := 0
	for _, name := range names {
		blk, ok := src.Get(name)
		if !ok && maxDist > 0 {
			if candidates == nil {
				candidates = src.Names()
			}
			var best string
			if best, ok = findBest(name, candidates, maxDist); ok {
				blk, _ = src.Get(best)
				blk.Name = name
			}
		}
		if !ok {
			continue
		}
		dst.Put(blk)
		matched++
	}
	return matched
}

// MergeStats counts what Merge changed.
type MergeStats struct {
	Updated int // existing entries whose stream lines were replaced
	Added   int // entries appended
}

// Merge folds remote into local. For a name already in local the local
// #EXTINF line is kept and the remaining lines come from remote; new names
// are appended in remote order.
func Merge(local, remote *m3u.Blocks) MergeStats {
	var st MergeStats
	for _, rb := range remote.List() {
		lb, ok := local.Get(rb.Name)
		if !ok {
			local.Put(rb)
			st.Added++
			continue
		}
		lines := make([]string, 0, len(rb.Lines))
		lines = append(lines, lb.Extinf())
		lines = append(lines, rb.Body()...)
		local.Put(m3u.Block{Name: lb.Name, Lines: lines})
		st.Updated++
	}
	return st
}

// WriteM3U writes the #EXTM3U header followed by every block, blocks
// separated by one blank line, with a trailing newline.
func WriteM3U(w io.Writer, blocks *m3u.Blocks) error {
	buf := &bytes.Buffer{}
	buf.WriteString("#EXTM3U\n")
	for i, blk := range blocks.List() {
		if i > 0 {
			buf.WriteString("\n")
		}
		for _, line := range blk.Lines {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	_, err := io.Copy(w, buf)
	return err
}
