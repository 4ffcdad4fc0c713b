package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unkn0wn-root/hurldeck/internal/errdef"
)

type RequestEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ListRequests returns the request files sorted by name. Hidden files and
// anything without the request extension are skipped.
func (w *Workspace) ListRequests() ([]RequestEntry, error) {
	dirEntries, err := os.ReadDir(w.CollectionsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "list requests")
	}

	var entries []RequestEntry
	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), extHurl) {
			continue
		}
		entries = append(entries, RequestEntry{
			Name: strings.TrimSuffix(name, filepath.Ext(name)),
			Path: filepath.Join(w.CollectionsDir(), name),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// RequestPath maps a request name to its file path after validating the name.
func (w *Workspace) RequestPath(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(w.CollectionsDir(), name+extHurl), nil
}

func (w *Workspace) RequestExists(name string) (bool, error) {
	path, err := w.RequestPath(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, errdef.Wrap(errdef.CodeFilesystem, err, "stat request %s", name)
	}
	return true, nil
}

func (w *Workspace) ReadRequest(name string) (string, error) {
	path, err := w.RequestPath(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errdef.New(errdef.CodeNotFound, "request %q does not exist", name)
		}
		return "", errdef.Wrap(errdef.CodeFilesystem, err, "read request %s", name)
	}
	return string(data), nil
}

// CreateRequest writes a new request file and fails when one already exists.
func (w *Workspace) CreateRequest(name, text string) error {
	path, err := w.RequestPath(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return errdef.New(errdef.CodeConflict, "request %q already exists", name)
	} else if !errors.Is(err, os.ErrNotExist) {
		return errdef.Wrap(errdef.CodeFilesystem, err, "stat request %s", name)
	}
	return writeFileAtomic(path, []byte(text))
}

// WriteRequest overwrites an existing request file, creating it if needed.
func (w *Workspace) WriteRequest(name, text string) error {
	path, err := w.RequestPath(name)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, []byte(text))
}

// RenameRequest moves a request file and keeps its section assignment.
func (w *Workspace) RenameRequest(oldName, newName string) error {
	oldPath, err := w.RequestPath(oldName)
	if err != nil {
		return err
	}
	newPath, err := w.RequestPath(newName)
	if err != nil {
		return err
	}
	if oldPath == newPath {
		return nil
	}

	if _, err := os.Stat(newPath); err == nil {
		return errdef.New(errdef.CodeConflict, "request %q already exists", newName)
	} else if !errors.Is(err, os.ErrNotExist) {
		return errdef.Wrap(errdef.CodeFilesystem, err, "stat request %s", newName)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errdef.New(errdef.CodeNotFound, "request %q does not exist", oldName)
		}
		return errdef.Wrap(errdef.CodeFilesystem, err, "rename request %s", oldName)
	}

	return w.UpdateMetadata(func(meta *Metadata) {
		if section, ok := meta.Requests[oldName]; ok {
			delete(meta.Requests, oldName)
			meta.Requests[newName] = section
		}
	})
}

// DeleteRequest removes the file and its section assignment.
func (w *Workspace) DeleteRequest(name string) error {
	path, err := w.RequestPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errdef.New(errdef.CodeNotFound, "request %q does not exist", name)
		}
		return errdef.Wrap(errdef.CodeFilesystem, err, "delete request %s", name)
	}

	return w.UpdateMetadata(func(meta *Metadata) {
		delete(meta.Requests, name)
	})
}
