package security

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"
)

type AuditAction string

const (
	ActionWriteBlocked   AuditAction = "WriteBlocked"
	ActionTamperDetected AuditAction = "TamperDetected"
	ActionPolicySigned   AuditAction = "PolicySigned"
)

// AuditEntry is one line of the append-only audit trail. Entries are never
// mutated or deleted.
type AuditEntry struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Action    AuditAction `json:"action"`
	Actor     string      `json:"actor"`
	Target    string      `json:"target"`
	Detail    string      `json:"detail,omitempty"`
}

// AuditLogPath returns the audit log location under the state directory.
func AuditLogPath(stateDir string) string {
	return filepath.Join(stateDir, AuditLogFileName)
}

// AppendAuditEntry appends one JSON line to the audit log. Audit is
// best-effort: callers log failures but never let them mask or replace the
// primary security decision.
func AppendAuditEntry(stateDir string, action AuditAction, actor, target string) error {
	return AppendAuditEntryWithDetail(stateDir, action, actor, target, "")
}

// AppendAuditEntryWithDetail appends one JSON line with an optional detail
// string. The write happens under an advisory file lock so concurrent
// processes produce whole lines.
func AppendAuditEntryWithDetail(stateDir string, action AuditAction, actor, target, detail string) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	entry := AuditEntry{
		ID:        ulid.Make().String(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Actor:     actor,
		Target:    target,
		Detail:    detail,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	logPath := AuditLogPath(stateDir)
	lock := flock.New(logPath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock audit log: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to release audit log lock", "path", logPath, "error", err)
		}
	}()

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	slog.Debug("Audit entry appended", "action", action, "target", target)
	return nil
}

// ReadAuditLog loads every parseable entry, oldest first. Used by the CLI;
// the core only appends.
func ReadAuditLog(stateDir string) ([]AuditEntry, error) {
	f, err := os.Open(AuditLogPath(stateDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			slog.Warn("Skipping malformed audit entry", "line", string(line), "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
