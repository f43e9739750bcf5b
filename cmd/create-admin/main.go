// Command create-admin bootstraps a superuser holding every permission.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"requirement-service/internal/model"
	"requirement-service/internal/policy"
	"requirement-service/internal/service"
	"requirement-service/pkg/config"
	"requirement-service/pkg/database"
	"requirement-service/pkg/logger"
	"requirement-service/pkg/password"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var in service.UserInput

	flagSet := pflag.NewFlagSet("create-admin", pflag.ContinueOnError)
	flagSet.StringVarP(&in.Username, "username", "u", "admin", "login name of the superuser")
	flagSet.StringVarP(&in.Email, "email", "e", "", "email address (required)")
	flagSet.StringVarP(&in.Password, "password", "p", "", "password, at least 8 characters (default: $ADMIN_PASSWORD)")
	flagSet.StringVar(&in.FirstName, "first-name", "System", "first name")
	flagSet.StringVar(&in.LastName, "last-name", "Administrator", "last name")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if in.Password == "" {
		in.Password = os.Getenv("ADMIN_PASSWORD")
	}
	if in.Email == "" || in.Password == "" {
		return errors.New("--email and --password (or ADMIN_PASSWORD) are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	defer log.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}

	in.Role = model.RoleAdmin
	in.Permissions = policy.AllPermissions
	in.IsSuperuser = true

	users := service.NewUserService(db, password.NewHasher(cfg.Security.BcryptCost))
	user, err := users.Create(context.Background(), in)
	if err != nil {
		return err
	}

	log.Info("Superuser created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return nil
}
