package cli

import (
	"context"
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/deeply-app/deeply/internal/db"
	"github.com/deeply-app/deeply/internal/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userAdmin bool

var userAddCmd = &cobra.Command{
	Use:   "add <name> <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, email := args[0], strings.ToLower(args[1])

		password, err := promptPassword()
		if err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		p := model.Person{
			ID:           uuid.New().String(),
			Name:         name,
			Email:        email,
			PasswordHash: string(hash),
			Admin:        userAdmin,
			CreatedAt:    time.Now(),
		}
		if err := database.CreatePerson(context.Background(), p); err != nil {
			return err
		}

		fmt.Printf("Created %s (%s)\n", name, email)
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <email>",
	Short: "Reset an account password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.ToLower(args[0])

		database, err := db.Open(cfg.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		ctx := context.Background()
		p, err := database.GetPersonByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("no account for %s", email)
		}

		password, err := promptPassword()
		if err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := database.SetPassword(ctx, p.ID, string(hash)); err != nil {
			return err
		}

		fmt.Printf("Password updated for %s\n", email)
		return nil
	},
}

var userLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(cfg.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		persons, err := database.ListPersons(context.Background())
		if err != nil {
			return err
		}

		for _, p := range persons {
			role := ""
			if p.Admin {
				role = " [admin]"
			}
			fmt.Printf("%s  %s <%s>%s\n", p.ID, p.Name, p.Email, role)
		}
		return nil
	},
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}

	fmt.Print("Confirm Password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}

	password := string(passwordBytes)
	if password != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	return password, nil
}

func init() {
	userAddCmd.Flags().BoolVar(&userAdmin, "admin", false, "Grant admin rights")
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userPasswdCmd)
	userCmd.AddCommand(userLsCmd)
}
