package git

import (
	"os"
	"strings"

	"commitsum/cli/internal/erruser"
)

// WriteHook fills a prepare-commit-msg file with message, keeping git's
// comment lines below it. A file that already holds a message (from -m, a
// merge or an amend) is left alone and WriteHook reports false.
func WriteHook(path, message string) (bool, error) {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, erruser.New("Could not read the commit message file.", err)
	}
	if hasMessage(string(existing)) {
		return false, nil
	}
	content := strings.TrimRight(message, "\n") + "\n"
	if len(existing) > 0 {
		content += "\n" + strings.TrimLeft(string(existing), "\n")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, erruser.New("Could not write the commit message file.", err)
	}
	return true, nil
}

func hasMessage(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return true
		}
	}
	return false
}
