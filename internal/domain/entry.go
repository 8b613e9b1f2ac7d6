package domain

// EntryDocument represents a corpus file in the catalog index.
// It is the data structure stored in the Bleve index used by the admin tools.
type EntryDocument struct {
	// ID is the corpus filename, which is unique.
	ID string `json:"id"`

	// Filename is the base filename the client requests.
	// Example: "pc12_gard_03.dat"
	Filename string `json:"filename"`

	// Group is the placeholder group key, empty when the file is not
	// eligible for placeholder substitution.
	// Example: "pc12_gard"
	Group string `json:"group"`

	// Extension is the file extension without the leading dot.
	// Example: "dat", "mbac"
	Extension string `json:"extension"`

	// Subdirectory is the data subdirectory the served copy was loaded from.
	Subdirectory string `json:"subdirectory"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	EntryFieldID           = "id"
	EntryFieldFilename     = "filename"
	EntryFieldGroup        = "group"
	EntryFieldExtension    = "extension"
	EntryFieldSubdirectory = "subdirectory"
	EntryFieldSize         = "size"
)
