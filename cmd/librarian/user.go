package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/service"
	"github.com/99minutos/library-system/pkg/logger"
)

func newCreateUserCmd() *cobra.Command {
	var username, role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register a user, prompting for the password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, store, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			auth := service.NewAuthService(store.Users, nil, cfg.Auth.BcryptCost, logger.Component("auth"))
			user, err := auth.Register(cmd.Context(), username, password, domain.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q with id %d\n", user.Role, user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "member or admin")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// readPassword reads without echo from a terminal, otherwise the first line
// of in so the command can be scripted.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
