// Package m3u parses extended M3U playlists into channel blocks keyed by name.
package m3u

import (
	"strings"

	unorm "golang.org/x/text/unicode/norm"
)

const extinfPrefix = "#EXTINF:"

// Block is one channel entry: its #EXTINF line followed by every line up to
// the next #EXTINF (options, stream URL).
type Block struct {
	Name  string
	Lines []string
}

// Extinf returns the block's #EXTINF line.
func (b Block) Extinf() string {
	if len(b.Lines) == 0 {
		return ""
	}
	return b.Lines[0]
}

// Body returns every line after the #EXTINF line.
func (b Block) Body() []string {
	if len(b.Lines) < 2 {
		return nil
	}
	return b.Lines[1:]
}

// Blocks is an insertion-ordered set of blocks keyed by Key(name).
type Blocks struct {
	order []string
	items map[string]Block
}

// NewBlocks returns an empty set.
func NewBlocks() *Blocks {
	return &Blocks{items: make(map[string]Block)}
}

// Key is the lookup key for a channel name: trimmed and NFC-normalized, so
// composed and decomposed spellings of the same name collide.
func Key(name string) string {
	return unorm.NFC.String(strings.TrimSpace(name))
}

// NameOf returns the channel name of an #EXTINF line, the text after its last comma.
func NameOf(extinf string) string {
	if i := strings.LastIndex(extinf, ","); i >= 0 {
		return strings.TrimSpace(extinf[i+1:])
	}
	return strings.TrimSpace(extinf)
}

// ParseBlocks splits content into blocks. Blank lines are skipped and lines
// before the first #EXTINF are ignored. A repeated name replaces the earlier
// block but keeps its position.
func ParseBlocks(content string) *Blocks {
	blocks := NewBlocks()
	var current *Block
	flush := func() {
		if current != nil {
			blocks.Put(*current)
			current = nil
		}
	}

	for raw := range strings.Lines(content) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, extinfPrefix) {
			flush()
			current = &Block{Name: NameOf(line), Lines: []string{line}}
			continue
		}
		if current != nil {
			current.Lines = append(current.Lines, line)
		}
	}
	flush()
	return blocks
}

// Len returns the number of blocks.
func (b *Blocks) Len() int { return len(b.order) }

// Get looks a block up by channel name.
func (b *Blocks) Get(name string) (Block, bool) {
	blk, ok := b.items[Key(name)]
	return blk, ok
}

// Put inserts blk, replacing an existing block of the same name in place.
func (b *Blocks) Put(blk Block) {
	key := Key(blk.Name)
	if _, ok := b.items[key]; !ok {
		b.order = append(b.order, key)
	}
	b.items[key] = blk
}

// Names returns the channel names in order.
func (b *Blocks) Names() []string {
	out := make([]string, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.items[k].Name)
	}
	return out
}

// List returns the blocks in order.
func (b *Blocks) List() []Block {
	out := make([]Block, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.items[k])
	}
	return out
}
