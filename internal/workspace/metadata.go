package workspace

import (
	"errors"
	"os"
	"sort"

	"github.com/bytedance/sonic"

	"github.com/unkn0wn-root/hurldeck/internal/errdef"
)

// Metadata is the whole metadata.json document. It is always read and
// written as a unit; UpdateMetadata serializes concurrent read-modify-write
// cycles behind a single mutex.
type Metadata struct {
	Sections []Section `json:"sections"`
	// Requests maps a request name to the ID of its section.
	Requests map[string]string `json:"requests"`
}

type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (m *Metadata) normalize() {
	if m.Sections == nil {
		m.Sections = []Section{}
	}
	if m.Requests == nil {
		m.Requests = map[string]string{}
	}
}

// SectionByID returns the section and whether it exists.
func (m *Metadata) SectionByID(id string) (Section, bool) {
	for _, section := range m.Sections {
		if section.ID == id {
			return section, true
		}
	}
	return Section{}, false
}

// RemoveSection drops a section and unassigns every request that pointed at
// it. Reports whether the section was present.
func (m *Metadata) RemoveSection(id string) bool {
	idx := -1
	for i, section := range m.Sections {
		if section.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	m.Sections = append(m.Sections[:idx], m.Sections[idx+1:]...)
	for name, sectionID := range m.Requests {
		if sectionID == id {
			delete(m.Requests, name)
		}
	}
	return true
}

// RequestsInSection returns the request names assigned to a section, sorted.
func (m *Metadata) RequestsInSection(id string) []string {
	var names []string
	for name, sectionID := range m.Requests {
		if sectionID == id {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ReadMetadata loads metadata.json. A missing file is an empty document, not
// an error, so a fresh workspace needs no seeding step.
func (w *Workspace) ReadMetadata() (Metadata, error) {
	w.metaMu.Lock()
	defer w.metaMu.Unlock()
	return w.readMetadataLocked()
}

func (w *Workspace) readMetadataLocked() (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(w.MetadataPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			meta.normalize()
			return meta, nil
		}
		return meta, errdef.Wrap(errdef.CodeFilesystem, err, "read metadata")
	}
	if len(data) > 0 {
		if err := sonic.Unmarshal(data, &meta); err != nil {
			return meta, errdef.Wrap(errdef.CodeParse, err, "parse metadata")
		}
	}
	meta.normalize()
	return meta, nil
}

// WriteMetadata replaces the document wholesale.
func (w *Workspace) WriteMetadata(meta Metadata) error {
	w.metaMu.Lock()
	defer w.metaMu.Unlock()
	return w.writeMetadataLocked(meta)
}

func (w *Workspace) writeMetadataLocked(meta Metadata) error {
	meta.normalize()
	data, err := sonic.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeUnknown, err, "encode metadata")
	}
	return writeFileAtomic(w.MetadataPath(), append(data, '\n'))
}

// UpdateMetadata applies a mutation under the metadata lock and persists the
// result. The mutation sees a normalized document with non-nil maps.
func (w *Workspace) UpdateMetadata(mutate func(*Metadata)) error {
	w.metaMu.Lock()
	defer w.metaMu.Unlock()

	meta, err := w.readMetadataLocked()
	if err != nil {
		return err
	}
	mutate(&meta)
	return w.writeMetadataLocked(meta)
}
