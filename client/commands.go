package main

import (
	"context"
	"flash-chat/domain"
	"flash-chat/feed"
	"flash-chat/grpc/client"
	"flash-chat/services"
	"flash-chat/ui"
	"fmt"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const authTimeout = 10 * time.Second

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireCredentials(); err != nil {
			return err
		}
		conn, err := dial()
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
		defer cancel()
		if _, err := client.NewAuthClient(conn).Register(ctx, config.Email, config.Password); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Account %s created, run `flash-chat chat` to join a room\n", config.Email)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Sign in and open the chat screen of a room",
	Long: `Sign in and open the chat screen of a room.

Keys:
  Enter   send the message
  Ctrl+L  log out
  Esc     quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireCredentials(); err != nil {
			return err
		}
		log := logs.GetLoggerFromString(config.LogLevel)

		conn, err := dial()
		if err != nil {
			return err
		}
		defer func() {
			log.Info("Closing connection...")
			_ = conn.Close()
		}()

		ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
		defer cancel()
		token, err := client.NewAuthClient(conn).Login(ctx, config.Email, config.Password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		session := services.NewSession()
		session.SignIn(config.Email, token)
		store := client.NewRemoteStore(log, conn, session, config.RestartInterval)
		controller := feed.NewChatFeedController(log, store)
		chat := services.NewChatService(session, controller)

		loggedOut, err := ui.Run(chat, domain.RoomID(config.RoomID))
		if err != nil {
			return err
		}
		if loggedOut {
			fmt.Fprintf(cmd.OutOrStdout(), "%s logged out\n", config.Email)
		}
		return nil
	},
}

func dial() (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(config.ServerAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	return conn, nil
}

func requireCredentials() error {
	if config.Email == "" || config.Password == "" {
		return &configError{err: fmt.Errorf("--email and --password (or CHAT_EMAIL and CHAT_PASSWORD) are required")}
	}
	return nil
}
