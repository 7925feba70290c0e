package sandbox

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// The introspection helpers below are built entirely on Run: the exec
// channel offers no structured filesystem API, so existence and listing are
// synthesized from shell primitives and their exit statuses. A missing path
// is a normal outcome, never an error; errors are reserved for transport
// failures.

// ReadFile returns the content of the file at filePath. The boolean is
// false when the file does not exist.
func (m *Manager) ReadFile(ctx context.Context, filePath string) (string, bool, error) {
	filePath = ResolvePath(filePath)
	result, err := m.Run(ctx, fmt.Sprintf("cat %s", filePath), "")
	if err != nil {
		return "", false, err
	}
	if !result.Succeeded() {
		return "", false, nil
	}
	return result.Stdout, true, nil
}

// CreateFile appends content to the file at filePath, creating the file
// when missing. Content is not escaped beyond the engine's quote
// rewriting; the caller must pass shell-safe text.
func (m *Manager) CreateFile(ctx context.Context, filePath, content string) (Result, error) {
	filePath = ResolvePath(filePath)
	return m.Run(ctx, fmt.Sprintf(`echo "%s" >> %s`, content, filePath), "")
}

// FileExists reports whether a regular file exists at filePath.
func (m *Manager) FileExists(ctx context.Context, filePath string) (bool, error) {
	filePath = ResolvePath(filePath)
	result, err := m.Run(ctx, fmt.Sprintf("test -f %s", filePath), "")
	if err != nil {
		return false, err
	}
	return result.ExitCode == 0, nil
}

// DirectoryExists reports whether a directory exists at dirPath.
func (m *Manager) DirectoryExists(ctx context.Context, dirPath string) (bool, error) {
	dirPath = ResolvePath(dirPath)
	result, err := m.Run(ctx, fmt.Sprintf("test -d %s", dirPath), "")
	if err != nil {
		return false, err
	}
	return result.ExitCode == 0, nil
}

// ListFiles returns the names of the regular files in the directory at
// dirPath, in the order the listing command produced them. The listing
// does not distinguish files from directories, so every entry is
// re-verified with its own existence checks before it is included.
func (m *Manager) ListFiles(ctx context.Context, dirPath string) ([]string, error) {
	dirPath = ResolvePath(dirPath)
	result, err := m.Run(ctx, fmt.Sprintf("ls -m %s", dirPath), "")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range strings.Split(result.Stdout, ", ") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		fullPath := path.Join(dirPath, entry)
		isFile, err := m.FileExists(ctx, fullPath)
		if err != nil {
			return nil, err
		}
		isDir, err := m.DirectoryExists(ctx, fullPath)
		if err != nil {
			return nil, err
		}
		if isFile && !isDir {
			files = append(files, entry)
		}
	}

	return files, nil
}

// ListDirectories returns the names of the directories in the directory at
// dirPath, each re-verified like ListFiles entries. Names keep their
// trailing separator unless includeTrailingSlash is false.
func (m *Manager) ListDirectories(ctx context.Context, dirPath string, includeTrailingSlash bool) ([]string, error) {
	dirPath = ResolvePath(dirPath)
	result, err := m.Run(ctx, "ls -dm */", dirPath)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range strings.Split(result.Stdout, ", ") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		isDir, err := m.DirectoryExists(ctx, path.Join(dirPath, entry))
		if err != nil {
			return nil, err
		}
		if !isDir {
			continue
		}

		if includeTrailingSlash {
			dirs = append(dirs, entry)
		} else {
			dirs = append(dirs, strings.TrimSuffix(entry, "/"))
		}
	}

	return dirs, nil
}
