package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ponyfiction/internal/app"
	"ponyfiction/internal/config"
	"ponyfiction/internal/model"
	"ponyfiction/internal/platform/database"
	"ponyfiction/internal/platform/logger"
	"ponyfiction/internal/repository"
)

type options struct {
	Login    string
	Email    string
	Password string
	Role     string
}

type accountCreator interface {
	CreateAccount(ctx context.Context, input app.SignUpInput, role model.UserRole) (*model.User, error)
}

func main() {
	if err := newCommand(run).Execute(); err != nil {
		log.Fatal().Err(err).Msg("create account failed")
	}
}

func newCommand(runFn func(cmd *cobra.Command, opts options) error) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "createsu",
		Short: "create a superuser or staff account",
		Long: "Creates an active account with the given role using the server config. " +
			"Missing values are read from stdin. The password may also come from CREATESU_PASSWORD.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFn(cmd, opts)
		},
	}
	flag := cmd.Flags()
	flag.StringVarP(&opts.Login, "login", "l", "", "account login")
	flag.StringVarP(&opts.Email, "email", "e", "", "account email")
	flag.StringVarP(&opts.Password, "password", "p", os.Getenv("CREATESU_PASSWORD"), "account password")
	flag.StringVarP(&opts.Role, "role", "r", model.RoleSu.String(), "one of su, admin, moderator")
	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}
	logg := logger.New(cfg.Log, cfg.App.Name)

	db, err := database.New(ctx, cfg, &logg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	auth := app.NewAuthService(
		repository.NewTransactor(db),
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		nil,
		nil,
		app.AuthConfig{JWTSecret: cfg.Auth.JWTSecret},
	)
	user, err := createAccount(ctx, auth, opts, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	logg.Info().Uint("user_id", user.ID).Str("login", user.Login).Str("role", user.Role.String()).Msg("account created")
	return nil
}

func createAccount(ctx context.Context, creator accountCreator, opts options, in io.Reader, out io.Writer) (*model.User, error) {
	role, ok := model.ParseUserRole(strings.ToLower(strings.TrimSpace(opts.Role)))
	if !ok || role == model.RoleUser {
		return nil, fmt.Errorf("unsupported role %q", opts.Role)
	}

	reader := bufio.NewReader(in)
	input := app.SignUpInput{Login: opts.Login, Email: opts.Email, Password: opts.Password}
	for _, field := range []struct {
		prompt string
		value  *string
	}{
		{"Login", &input.Login},
		{"Email", &input.Email},
		{"Password", &input.Password},
	} {
		if strings.TrimSpace(*field.value) != "" {
			continue
		}
		value, err := prompt(reader, out, field.prompt)
		if err != nil {
			return nil, err
		}
		*field.value = value
	}

	user, err := creator.CreateAccount(ctx, input, role)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "created %s %q (id %d)\n", user.Role, user.Login, user.ID)
	return user, nil
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s failed: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
