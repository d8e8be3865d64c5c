package main

import (
	"fmt"
	"path/filepath"

	"github.com/wardenhq/warden/internal/security"

	"github.com/spf13/cobra"
)

var securityCmd = &cobra.Command{
	Use:   "security",
	Short: "Manage the policy manifest and security state",
}

var securitySignCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign the workspace policy document",
	Long:  `Compute a fresh HMAC over the workspace policy document and store it in the manifest. Run this after every deliberate policy edit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace := cfg.WorkspacePath()
		stateDir := cfg.StateDir()

		if err := security.SignPolicy(workspace, stateDir); err != nil {
			return fmt.Errorf("sign policy: %w", err)
		}

		fmt.Printf("Signed %s\n", filepath.Join(workspace, security.PolicyFileName))
		return nil
	},
}

var securityVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the workspace policy document against its manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		result := security.LoadAndVerifyPolicy(cfg.WorkspacePath(), cfg.StateDir())
		fmt.Println(result.String())

		if result == security.PolicyTamperDetected {
			return fmt.Errorf("policy verification failed: %s", result)
		}
		return nil
	},
}

var securityTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the local API token, generating it on first use",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := security.EnsureAPIToken(cfg.StateDir())
		if err != nil {
			return fmt.Errorf("ensure api token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the security audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print audit log entries, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := security.ReadAuditLog(cfg.StateDir())
		if err != nil {
			return fmt.Errorf("read audit log: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No audit entries")
			return nil
		}

		for _, entry := range entries {
			line := fmt.Sprintf("%s  %-16s  actor=%s  target=%s",
				entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Action, entry.Actor, entry.Target)
			if entry.Detail != "" {
				line += "  " + entry.Detail
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	securityCmd.AddCommand(securitySignCmd)
	securityCmd.AddCommand(securityVerifyCmd)
	securityCmd.AddCommand(securityTokenCmd)
	auditCmd.AddCommand(auditListCmd)
	rootCmd.AddCommand(securityCmd)
	rootCmd.AddCommand(auditCmd)
}
