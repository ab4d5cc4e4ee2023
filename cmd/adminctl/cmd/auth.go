package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the admin backend and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, cleanup, err := buildSession()
		if err != nil {
			return err
		}
		defer cleanup()
		mgr.Start(cmd.Context())

		if snap := mgr.Snapshot(); snap.Authenticated() {
			fmt.Printf("Already logged in as %s.\n", snap.Admin.Email)
			return nil
		}

		fmt.Print("Enter email: ")
		reader := bufio.NewReader(os.Stdin)
		email, _ := reader.ReadString('\n')
		email = strings.TrimSpace(email)

		fmt.Print("Enter password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		if err := mgr.Login(cmd.Context(), email, string(bytePassword)); err != nil {
			return err
		}

		snap := mgr.Snapshot()
		fmt.Printf("Logged in as %s (%s).\n", snap.Admin.FullName, snap.Admin.Email)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently authenticated administrator",
	Long: `Show the currently authenticated administrator.

Sessions are scoped to a single process: the token decryption key is never
persisted, so a login from an earlier adminctl invocation cannot be resumed
here and will report "not logged in".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, cleanup, err := buildSession()
		if err != nil {
			return err
		}
		defer cleanup()
		mgr.Start(cmd.Context())

		snap := mgr.Snapshot()
		if !snap.Authenticated() {
			fmt.Println("Not logged in.")
			return nil
		}
		fmt.Printf("%s <%s>\n", snap.Admin.FullName, snap.Admin.Email)
		if snap.Admin.Role != "" {
			fmt.Printf("Role: %s\n", snap.Admin.Role)
		}
		fmt.Printf("Session expires in %ds of inactivity.\n", snap.TimeRemainingSeconds)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Terminate the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, cleanup, err := buildSession()
		if err != nil {
			return err
		}
		defer cleanup()
		mgr.Start(cmd.Context())

		mgr.Logout(cmd.Context())
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, whoamiCmd, logoutCmd)
}
