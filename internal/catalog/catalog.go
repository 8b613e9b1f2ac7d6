package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sha1n/mhi-server/internal/corpus"
	"github.com/sha1n/mhi-server/internal/domain"
)

// MaxBatchSize is the maximum number of documents per batch
const MaxBatchSize = 100

// ErrEmptyQuery is returned by Search when no criteria are given.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Catalog is a searchable in-memory index over the entries of a corpus.
// Like the corpus it describes, it is built once and only read afterwards.
type Catalog struct {
	corpus     *corpus.Corpus
	index      bleve.Index
	maxResults int
}

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query     string `json:"query,omitempty" jsonschema_description:"Filename pattern; * and ? are wildcards, plain text matches anywhere in the name"`
	Group     string `json:"group,omitempty" jsonschema_description:"Filter by placeholder group (e.g., pc12_gard)"`
	Extension string `json:"extension,omitempty" jsonschema_description:"Filter by file extension (e.g., dat, mbac)"`
}

// CreateIndexMapping creates the Bleve index mapping for corpus entries.
// Every text field is a stored keyword: filenames are matched verbatim
// and case-sensitively, the same way the resolver matches them.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	for _, name := range []string{
		domain.EntryFieldFilename,
		domain.EntryFieldGroup,
		domain.EntryFieldExtension,
		domain.EntryFieldSubdirectory,
	} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = keyword.Name
		field.Store = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	sizeField := bleve.NewNumericFieldMapping()
	sizeField.Store = true
	docMapping.AddFieldMappingsAt(domain.EntryFieldSize, sizeField)

	// ID - stored but not indexed (we use the document ID)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.EntryFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = keyword.Name

	return indexMapping
}

// New indexes every entry of c into a memory-only index.
func New(c *corpus.Corpus, maxResults int) (*Catalog, error) {
	if c == nil {
		return nil, fmt.Errorf("corpus cannot be nil")
	}
	if maxResults <= 0 {
		return nil, fmt.Errorf("max results must be positive, got %d", maxResults)
	}

	index, err := bleve.NewMemOnly(CreateIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}

	batch := index.NewBatch()
	for _, entry := range c.Entries() {
		doc := NewEntryDocument(entry)
		if err := batch.Index(doc.ID, doc); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index %s: %w", doc.ID, err)
		}
		if batch.Size() >= MaxBatchSize {
			if err := index.Batch(batch); err != nil {
				_ = index.Close()
				return nil, fmt.Errorf("batch index failed: %w", err)
			}
			batch = index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("final batch index failed: %w", err)
		}
	}

	return &Catalog{corpus: c, index: index, maxResults: maxResults}, nil
}

// NewEntryDocument converts a corpus entry to its index document.
func NewEntryDocument(e corpus.Entry) domain.EntryDocument {
	group, _ := corpus.GroupKey(e.Filename)
	return domain.EntryDocument{
		ID:           e.Filename,
		Filename:     e.Filename,
		Group:        group,
		Extension:    strings.TrimPrefix(filepath.Ext(e.Filename), "."),
		Subdirectory: e.Subdirectory,
		Size:         e.Size,
	}
}

// Corpus returns the corpus the catalog describes.
func (c *Catalog) Corpus() *corpus.Corpus {
	return c.corpus
}

// DocCount returns the number of indexed entries.
func (c *Catalog) DocCount() (uint64, error) {
	return c.index.DocCount()
}

// Search returns up to maxResults entries matching args, sorted by filename.
func (c *Catalog) Search(args SearchArgument) (*bleve.SearchResult, error) {
	q, err := buildQuery(args)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequest(q)
	req.Size = c.maxResults
	req.Fields = []string{
		domain.EntryFieldFilename,
		domain.EntryFieldGroup,
		domain.EntryFieldSubdirectory,
		domain.EntryFieldSize,
	}
	req.SortBy([]string{domain.EntryFieldFilename})

	return c.index.Search(req)
}

// buildQuery constructs a Bleve query from search arguments.
func buildQuery(args SearchArgument) (query.Query, error) {
	var must []query.Query

	if text := strings.TrimSpace(args.Query); text != "" {
		if !strings.ContainsAny(text, "*?") {
			text = "*" + text + "*"
		}
		nameQuery := bleve.NewWildcardQuery(text)
		nameQuery.SetField(domain.EntryFieldFilename)
		must = append(must, nameQuery)
	}

	if args.Group != "" {
		groupQuery := bleve.NewTermQuery(args.Group)
		groupQuery.SetField(domain.EntryFieldGroup)
		must = append(must, groupQuery)
	}

	if args.Extension != "" {
		// Normalize extension (remove leading dot if present)
		extQuery := bleve.NewTermQuery(strings.TrimPrefix(args.Extension, "."))
		extQuery.SetField(domain.EntryFieldExtension)
		must = append(must, extQuery)
	}

	switch len(must) {
	case 0:
		return nil, ErrEmptyQuery
	case 1:
		return must[0], nil
	default:
		return bleve.NewConjunctionQuery(must...), nil
	}
}

// Close releases the index.
func (c *Catalog) Close() error {
	return c.index.Close()
}
