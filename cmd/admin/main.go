// Command admin manages shop accounts from the shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/fruitshop-backend/internal/auth"
	"github.com/angelmondragon/fruitshop-backend/pkg/config"
	"github.com/angelmondragon/fruitshop-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/angelmondragon/fruitshop-backend/pkg/logger"
	"github.com/angelmondragon/fruitshop-backend/pkg/security"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "admin"})
	_ = godotenv.Load()

	username := flag.String("username", "", "superuser username")
	email := flag.String("email", "", "superuser email")
	password := flag.String("password", "", "superuser password (defaults to $FRUITSHOP_ADMIN_PASSWORD)")
	flag.Parse()

	pw := *password
	if pw == "" {
		pw = os.Getenv("FRUITSHOP_ADMIN_PASSWORD")
	}

	if err := createSuperuser(context.Background(), logg, auth.AdminRegisterRequest{
		Username: strings.TrimSpace(*username),
		Email:    strings.TrimSpace(*email),
		Password: pw,
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodeInternal {
			fmt.Fprintln(os.Stderr, typed.Message())
		} else {
			fmt.Fprintf(os.Stderr, "create superuser failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func createSuperuser(ctx context.Context, logg *logger.Logger, req auth.AdminRegisterRequest) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	svc, err := auth.NewAdminRegisterService(auth.RegisterServiceParams{
		TxRunner: dbClient,
		Hasher:   security.NewHasher(cfg.Password),
	})
	if err != nil {
		return err
	}
	user, err := svc.CreateSuperuser(ctx, req)
	if err != nil {
		return err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"user_id": user.ID, "username": user.Username}), "superuser created")
	fmt.Printf("superuser %q created (id %d)\n", user.Username, user.ID)
	return nil
}
