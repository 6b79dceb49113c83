package chat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "whale-copytrader/internal/errors"
)

// SessionExt is the file extension of stored user sessions.
const SessionExt = ".session"

// ListSessions returns the session names found in dir, sorted.
func ListSessions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session dir: %w", err)
	}

	var sessions []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), SessionExt) {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(e.Name(), SessionExt))
	}
	sort.Strings(sessions)
	return sessions, nil
}

// sqliteHeader opens the SQLite session files written by Pyrogram and
// Telethon, which the gotd session storage cannot read.
var sqliteHeader = []byte("SQLite format 3\x00")

// IsGotdSession reports whether path holds a gotd JSON session.
func IsGotdSession(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening session: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading session: %w", err)
	}
	head = head[:n]
	if bytes.HasPrefix(head, sqliteHeader) {
		return false, nil
	}
	head = bytes.TrimLeft(head, " \t\r\n")
	return len(head) > 0 && head[0] == '{', nil
}

// FirstSession returns the path of the first gotd session file in dir.
// Files in another format are skipped with their names kept for the error.
func FirstSession(dir string) (string, error) {
	sessions, err := ListSessions(dir)
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("%w in %s", apperrors.ErrNoSession, dir)
	}

	var skipped []string
	for _, name := range sessions {
		path := filepath.Join(dir, name+SessionExt)
		ok, err := IsGotdSession(path)
		if err != nil {
			return "", err
		}
		if ok {
			return path, nil
		}
		skipped = append(skipped, name+SessionExt)
	}
	return "", fmt.Errorf("%w in %s: %s not gotd JSON sessions (Pyrogram and Telethon SQLite sessions are not supported)",
		apperrors.ErrNoSession, dir, strings.Join(skipped, ", "))
}
