package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unkn0wn-root/hurldeck/internal/environ"
	"github.com/unkn0wn-root/hurldeck/internal/errdef"
)

// Environment is one named variable set. Variables are the shareable part;
// Secrets live in a sibling file so the main file can go into version
// control while the secret one stays ignored.
type Environment struct {
	Name      string            `json:"name"`
	Variables map[string]string `json:"variables"`
	Secrets   map[string]string `json:"secrets,omitempty"`
}

func (w *Workspace) environmentPath(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(w.EnvironmentsDir(), name+extEnv), nil
}

func (w *Workspace) secretsPath(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(w.EnvironmentsDir(), name+extSecretEnv), nil
}

// VariablesFile returns the path passed to the runner for an environment, or
// empty when the environment has no variables file on disk.
func (w *Workspace) VariablesFile(name string) (string, error) {
	return w.existingPath(w.environmentPath, name)
}

// SecretsFile is the runner-facing path of the secret sibling, if present.
func (w *Workspace) SecretsFile(name string) (string, error) {
	return w.existingPath(w.secretsPath, name)
}

func (w *Workspace) existingPath(resolve func(string) (string, error), name string) (string, error) {
	path, err := resolve(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", errdef.Wrap(errdef.CodeFilesystem, err, "stat environment %s", name)
	}
	return path, nil
}

// ListEnvironments returns environment names sorted alphabetically. A secret
// file without a main file still counts as an environment.
func (w *Workspace) ListEnvironments() ([]string, error) {
	dirEntries, err := os.ReadDir(w.EnvironmentsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "list environments")
	}

	seen := make(map[string]bool)
	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		switch {
		case strings.HasSuffix(name, extSecretEnv):
			seen[strings.TrimSuffix(name, extSecretEnv)] = true
		case strings.HasSuffix(name, extEnv):
			seen[strings.TrimSuffix(name, extEnv)] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ReadEnvironment loads both files of an environment. Missing files yield
// empty maps; the environment exists when at least one file does.
func (w *Workspace) ReadEnvironment(name string) (Environment, error) {
	env := Environment{Name: name}

	varsPath, err := w.environmentPath(name)
	if err != nil {
		return env, err
	}
	secretsPath, err := w.secretsPath(name)
	if err != nil {
		return env, err
	}

	variables, varsExist, err := readEnvFile(varsPath)
	if err != nil {
		return env, err
	}
	secrets, secretsExist, err := readEnvFile(secretsPath)
	if err != nil {
		return env, err
	}

	if !varsExist && !secretsExist {
		return env, errdef.New(errdef.CodeNotFound, "environment %q does not exist", name)
	}
	env.Variables = variables
	env.Secrets = secrets
	return env, nil
}

func readEnvFile(path string) (map[string]string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, false, nil
		}
		return nil, false, errdef.Wrap(errdef.CodeFilesystem, err, "read %s", path)
	}
	values, err := environ.Parse(string(data))
	if err != nil {
		return nil, true, errdef.Wrap(errdef.CodeParse, err, "parse %s", filepath.Base(path))
	}
	return values, true, nil
}

// WriteEnvironment persists both files. An empty secrets map removes the
// secret file instead of leaving a stale one behind.
func (w *Workspace) WriteEnvironment(env Environment) error {
	varsPath, err := w.environmentPath(env.Name)
	if err != nil {
		return err
	}
	secretsPath, err := w.secretsPath(env.Name)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(varsPath, []byte(environ.Render(env.Variables))); err != nil {
		return err
	}

	if len(env.Secrets) == 0 {
		if err := os.Remove(secretsPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errdef.Wrap(errdef.CodeFilesystem, err, "remove secrets for %s", env.Name)
		}
		return nil
	}
	return writeFileAtomic(secretsPath, []byte(environ.Render(env.Secrets)))
}

// DeleteEnvironment removes both files of an environment.
func (w *Workspace) DeleteEnvironment(name string) error {
	varsPath, err := w.environmentPath(name)
	if err != nil {
		return err
	}
	secretsPath, err := w.secretsPath(name)
	if err != nil {
		return err
	}

	varsErr := os.Remove(varsPath)
	secretsErr := os.Remove(secretsPath)

	if errors.Is(varsErr, os.ErrNotExist) && errors.Is(secretsErr, os.ErrNotExist) {
		return errdef.New(errdef.CodeNotFound, "environment %q does not exist", name)
	}
	if varsErr != nil && !errors.Is(varsErr, os.ErrNotExist) {
		return errdef.Wrap(errdef.CodeFilesystem, varsErr, "delete environment %s", name)
	}
	if secretsErr != nil && !errors.Is(secretsErr, os.ErrNotExist) {
		return errdef.Wrap(errdef.CodeFilesystem, secretsErr, "delete secrets for %s", name)
	}
	return nil
}
