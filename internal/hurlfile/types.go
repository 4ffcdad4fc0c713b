package hurlfile

// Header is a single request header. Order and duplicates are significant,
// so headers are kept as a slice instead of a map.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Document is the structured form of one Hurl request file. The text on disk
// is the source of truth; a Document only lives while the structured editor
// has the file open and is re-rendered after every mutation.
type Document struct {
	Method         string   `json:"method"`
	URL            string   `json:"url"`
	Headers        []Header `json:"headers"`
	Body           string   `json:"body"`
	ResponseStatus string   `json:"responseStatus"`
	Captures       []string `json:"captures"`
	Asserts        []string `json:"asserts"`
}

// HasExpectations reports whether the document declares anything about the
// response. The writer only emits an HTTP line when this is true.
func (d *Document) HasExpectations() bool {
	if d == nil {
		return false
	}
	return d.ResponseStatus != "" || len(d.Captures) > 0 || len(d.Asserts) > 0
}
