package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

var (
	config Config

	rootCmd = &cobra.Command{
		Use:           "flash-chat",
		Short:         "Terminal client of a flash-chat store server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return &configError{err: err}
			}
			config = mergeFlags(cmd, loaded)
			return nil
		},
	}
)

type configError struct{ err error }

func (e *configError) Error() string { return "config error: " + e.err.Error() }

func (e *configError) Unwrap() error { return e.err }

func init() {
	rootCmd.PersistentFlags().String("server", "", "store server address (or set CHAT_SERVER_ADDR)")
	rootCmd.PersistentFlags().String("email", "", "account email (or set CHAT_EMAIL)")
	rootCmd.PersistentFlags().String("password", "", "account password (or set CHAT_PASSWORD)")

	chatCmd.Flags().String("room", "", "room to join (or set CHAT_ROOM_ID)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(chatCmd)
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var cfgErr *configError
		if errors.As(err, &cfgErr) {
			return exitConfig, err
		}
		return exitRuntime, err
	}
	return exitOK, nil
}

// mergeFlags lets explicit flags win over the environment.
func mergeFlags(cmd *cobra.Command, c Config) Config {
	if v, _ := cmd.Flags().GetString("server"); v != "" {
		c.ServerAddress = v
	}
	if v, _ := cmd.Flags().GetString("email"); v != "" {
		c.Email = v
	}
	if v, _ := cmd.Flags().GetString("password"); v != "" {
		c.Password = v
	}
	if f := cmd.Flags().Lookup("room"); f != nil && f.Value.String() != "" {
		c.RoomID = f.Value.String()
	}
	return c
}
