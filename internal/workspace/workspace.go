package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/unkn0wn-root/hurldeck/internal/errdef"
)

const (
	collectionsDirName  = "collections"
	environmentsDirName = "environments"
	metadataFileName    = "metadata.json"

	extHurl      = ".hurl"
	extEnv       = ".env"
	extSecretEnv = ".secret.env"
)

// Workspace is the on-disk layout under one data directory:
//
//	collections/   one .hurl file per request
//	environments/  <name>.env plus optional <name>.secret.env
//	metadata.json  sections and request-to-section mapping
//
// All mutation goes through whole-file writes; there is no partial update.
type Workspace struct {
	root string

	metaMu sync.Mutex
}

func New(root string) *Workspace {
	return &Workspace{root: filepath.Clean(root)}
}

func (w *Workspace) Root() string { return w.root }

func (w *Workspace) CollectionsDir() string {
	return filepath.Join(w.root, collectionsDirName)
}

func (w *Workspace) EnvironmentsDir() string {
	return filepath.Join(w.root, environmentsDirName)
}

func (w *Workspace) MetadataPath() string {
	return filepath.Join(w.root, metadataFileName)
}

// Init creates the directory skeleton. Existing content is left alone.
func (w *Workspace) Init() error {
	for _, dir := range []string{w.root, w.CollectionsDir(), w.EnvironmentsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errdef.Wrap(errdef.CodeFilesystem, err, "create workspace dir %s", dir)
		}
	}
	return nil
}

// validateName rejects anything that could escape the workspace directory.
// Names are bare identifiers, never paths.
func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errdef.New(errdef.CodeInvalid, "name must not be empty")
	}
	if trimmed != name {
		return errdef.New(errdef.CodeInvalid, "name %q has leading or trailing whitespace", name)
	}
	if strings.HasPrefix(name, ".") {
		return errdef.New(errdef.CodeInvalid, "name %q must not start with a dot", name)
	}
	if strings.ContainsAny(name, "/\\") || name != filepath.Base(name) {
		return errdef.New(errdef.CodeInvalid, "name %q must not contain path separators", name)
	}
	// "a.secret" + extEnv would collide with the secrets file of "a"
	if strings.HasSuffix(strings.ToLower(name), ".secret") {
		return errdef.New(errdef.CodeInvalid, "name %q must not end with .secret", name)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".hurldeck-*")
	if err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errdef.Wrap(errdef.CodeFilesystem, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errdef.Wrap(errdef.CodeFilesystem, err, "close %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errdef.Wrap(errdef.CodeFilesystem, err, "replace %s", path)
	}
	return nil
}
