package corpus

import (
	"sort"

	"github.com/armon/go-radix"
)

// Corpus is the in-memory mapping from base filename to file contents.
// It is built once by Load (or New) and never mutated afterwards, so any
// number of request handlers may read it concurrently without locking.
// Byte slices handed out by a Corpus are shared and must not be modified.
type Corpus struct {
	files  map[string][]byte
	source map[string]string
	index  *radix.Tree
	stats  Stats
}

// Entry describes a single corpus file.
type Entry struct {
	Filename     string
	Subdirectory string
	Size         int64
}

// SubdirectoryStats reports how many files a subdirectory contributed
// before filename collisions were resolved.
type SubdirectoryStats struct {
	Name    string
	Files   int
	Missing bool
}

// Stats is a snapshot of load diagnostics.
type Stats struct {
	Files          int
	TotalBytes     int64
	Groups         int
	Unreadable     int
	Subdirectories []SubdirectoryStats
}

// New builds a Corpus from an in-memory set of files. The map is copied;
// later changes to it are not visible through the Corpus.
func New(files map[string][]byte) *Corpus {
	c := newCorpus()
	for name, data := range files {
		c.add(name, data, "")
	}
	c.seal()
	return c
}

func newCorpus() *Corpus {
	return &Corpus{
		files:  make(map[string][]byte),
		source: make(map[string]string),
		index:  radix.New(),
	}
}

// add stores a file, replacing any earlier entry with the same name.
func (c *Corpus) add(name string, data []byte, subdir string) {
	c.files[name] = data
	c.source[name] = subdir
	c.index.Insert(name, data)
}

// seal computes the derived statistics once all files are added.
func (c *Corpus) seal() {
	groups := make(map[string]struct{})
	var total int64
	for name, data := range c.files {
		total += int64(len(data))
		if key, ok := GroupKey(name); ok {
			groups[key] = struct{}{}
		}
	}
	c.stats.Files = len(c.files)
	c.stats.TotalBytes = total
	c.stats.Groups = len(groups)
}

// Len returns the number of loaded entries.
func (c *Corpus) Len() int {
	return len(c.files)
}

// Get returns the bytes stored under filename.
func (c *Corpus) Get(filename string) ([]byte, bool) {
	data, ok := c.files[filename]
	return data, ok
}

// Stats returns the load diagnostics.
func (c *Corpus) Stats() Stats {
	s := c.stats
	s.Subdirectories = append([]SubdirectoryStats(nil), c.stats.Subdirectories...)
	return s
}

// Entries returns every corpus entry sorted by filename.
func (c *Corpus) Entries() []Entry {
	entries := make([]Entry, 0, len(c.files))
	for name, data := range c.files {
		entries = append(entries, Entry{
			Filename:     name,
			Subdirectory: c.source[name],
			Size:         int64(len(data)),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Filename < entries[j].Filename
	})
	return entries
}
