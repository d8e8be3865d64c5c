package filter

// Compiled-in deny defaults for tool input filtering.
// Config can extend these but never remove them.

// BashDenySubstrings are case-insensitive substring matches on the raw command.
var BashDenySubstrings = []string{
	".device_key",
	".security_audit.jsonl",
	".warden_manifest.json",
	"rm -rf /",
	"mkfs",
	":(){ :|:& };:",
	"chmod 777",
}

// BashDenyPatterns are regex patterns compiled at startup.
var BashDenyPatterns = []string{
	`\bsudo\b`,
	`curl\s.*\|\s*sh`,
	`wget\s.*\|\s*sh`,
	`curl\s.*\|\s*bash`,
	`wget\s.*\|\s*bash`,
	`curl\s.*\|\s*python`,
}

// WebFetchDenySubstrings are fast-fail defense in depth only. Authoritative
// SSRF protection lives with the HTTP collaborator, which parses and
// DNS-resolves hosts before connecting.
var WebFetchDenySubstrings = []string{
	"file://",
	"://localhost",
	"://0.0.0.0",
	"://169.254.169.254",
	"://[::1]",
}

// WebFetchDenyPatterns are authority-focused checks, kept small and
// conservative to avoid blocking valid URLs on query-string collisions.
var WebFetchDenyPatterns = []string{
	`(?i)^https?://localhost(?::|/|$)`,
	`(?i)^https?://127(?:\.\d{1,3}){3}(?::|/|$)`,
	`(?i)^https?://0\.0\.0\.0(?::|/|$)`,
	`(?i)^https?://169\.254\.169\.254(?::|/|$)`,
	`(?i)^https?://\[(::1|0:0:0:0:0:0:0:1)\](?::|/|$)`,
}
