package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/auth"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/metrics"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/postgres"
	"github.com/shikhar190399/q-and-a-websockets/internal/app"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
)

var (
	adminUsername string
	adminEmail    string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:               "admin",
	Short:             "Manage admin accounts",
	PersistentPreRunE: connect,
	PersistentPostRun: closePool,
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		password, err := resolvePassword(cmd)
		if err != nil {
			return err
		}

		clock := clockwork.NewRealClock()
		admins := postgres.NewAdminRepo(pool)
		authenticator := auth.NewAuthenticator(cfg.JWTSecret, cfg.TokenTTL, admins, clock)
		svc := app.NewService(postgres.NewQuestionRepo(pool), admins, authenticator, noopPublisher{}, clock,
			metrics.NewQuestionMetrics(prometheus.NewRegistry()))

		admin, err := svc.RegisterAdmin(cmd.Context(), adminUsername, adminEmail, password)
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			return fmt.Errorf("email %q is already registered", adminEmail)
		case errors.Is(err, domain.ErrUsernameTaken):
			return fmt.Errorf("username %q is already taken", adminUsername)
		case err != nil:
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %d (%s, %s)\n", admin.ID, admin.Username, admin.Email)
		return nil
	},
}

// resolvePassword returns --password when set, otherwise prompts on the terminal.
func resolvePassword(cmd *cobra.Command) (string, error) {
	if adminPassword != "" {
		return adminPassword, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// noopPublisher satisfies the service; admin commands never emit events.
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.Event) {}

func init() {
	adminCreateCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (prompted when omitted)")
	_ = adminCreateCmd.MarkFlagRequired("username")
	_ = adminCreateCmd.MarkFlagRequired("email")

	adminCmd.AddCommand(adminCreateCmd)
}
