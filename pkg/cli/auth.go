package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mchmarny/genrelay/pkg/auth"
	"github.com/urfave/cli/v3"
)

const (
	flagClientID = "client-id"
	flagTokenURL = "token-url"
	flagDelete   = "delete"
)

func authCommand() *cli.Command {
	return &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Saves the catalog client secret to the OS keychain",
		Action:          cmdAuth,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagClientID,
				Usage: "Catalog client id (default: from config)",
			},
			&cli.StringFlag{
				Name:  flagTokenURL,
				Usage: "Catalog OAuth2 token URL (default: from config)",
			},
			&cli.BoolFlag{
				Name:  flagDelete,
				Usage: "Removes the saved secret",
			},
		},
	}
}

func cmdAuth(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	clientID := cmd.String(flagClientID)
	if clientID == "" {
		clientID = cfg.Config.Catalog.ClientID
	}
	tokenURL := cmd.String(flagTokenURL)
	if tokenURL == "" {
		tokenURL = cfg.Config.Catalog.TokenURL
	}
	if clientID == "" || tokenURL == "" {
		return errors.New("catalog client id and token URL required")
	}

	store := auth.NewSecretStore(cfg.Dir)
	if cmd.Bool(flagDelete) {
		if err := store.Delete(clientID); err != nil {
			return err
		}
		fmt.Fprintln(cfg.Out, "Secret removed")
		return nil
	}

	fmt.Fprintf(cfg.Out, "Enter the client secret for %s:\n>", clientID)
	secret, err := readSecret(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading user input: %w", err)
	}

	if _, err := auth.GetToken(ctx, tokenURL, clientID, secret); err != nil {
		return fmt.Errorf("verifying credentials: %w", err)
	}

	if err := store.Save(clientID, secret); err != nil {
		return fmt.Errorf("saving secret: %w", err)
	}

	fmt.Fprintln(cfg.Out, "Secret verified and saved")
	return nil
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	s := strings.TrimSpace(line)
	if s == "" {
		return "", errors.New("secret is empty")
	}
	return s, nil
}
