package room

import "github.com/manpreetbhatti/codesync/internal/document"

// Default metadata for a room whose creator did not name its file.
const (
	DefaultFileName      = "main"
	DefaultFileExtension = ".js"
)

// File is the one document a room edits. It is not synchronized; the owning
// Room serializes every call.
type File struct {
	name      string
	extension string
	doc       document.Document
}

// NewFile builds a file around an empty document. Empty metadata falls back
// to the defaults.
func NewFile(name, extension string, doc document.Document) *File {
	if name == "" {
		name = DefaultFileName
	}
	if extension == "" {
		extension = DefaultFileExtension
	}
	return &File{name: name, extension: extension, doc: doc}
}

func (f *File) Name() string      { return f.name }
func (f *File) Extension() string { return f.extension }

// ApplyUpdate merges an update delta into the document.
func (f *File) ApplyUpdate(update []byte) {
	f.doc.ApplyUpdate(update)
}

// EncodeFullState returns the order-independent full-state encoding.
func (f *File) EncodeFullState() []byte {
	return f.doc.EncodeStateAsUpdate()
}

// Rename updates whichever of name and extension is non-empty.
func (f *File) Rename(name, extension string) {
	if name != "" {
		f.name = name
	}
	if extension != "" {
		f.extension = extension
	}
}
