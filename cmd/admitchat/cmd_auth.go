package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chatadmision/admitchat/internal/auth"
)

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, passwdCmd)
}

func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in to the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readLine("Contraseña: ")
		if err != nil {
			return err
		}
		svc := auth.NewService(client)
		authCtx, err := svc.Login(context.Background(), args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("Sesión iniciada como %s (%s).\n", authCtx.User.Username, authCtx.User.Role)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username> <email>",
	Short: "Create an account and log in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readLine("Contraseña: ")
		if err != nil {
			return err
		}
		authCtx, err := auth.NewService(client).Register(context.Background(), args[0], args[1], password)
		if err != nil {
			return err
		}
		fmt.Printf("Cuenta creada; sesión iniciada como %s.\n", authCtx.User.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.NewService(client).Logout(context.Background()); err != nil {
			return err
		}
		fmt.Println("Sesión cerrada.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current authenticated user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		authCtx, err := auth.NewService(client).Status(context.Background())
		if err != nil {
			return err
		}
		if !authCtx.Authenticated {
			fmt.Println("No has iniciado sesión.")
			return nil
		}
		fmt.Printf("%s <%s> (%s)\n", authCtx.User.Username, authCtx.User.Email, authCtx.User.Role)
		return nil
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the current user's password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := readLine("Contraseña actual: ")
		if err != nil {
			return err
		}
		updated, err := readLine("Contraseña nueva: ")
		if err != nil {
			return err
		}
		if err := auth.NewService(client).ChangePassword(context.Background(), current, updated); err != nil {
			return err
		}
		fmt.Println("Contraseña actualizada.")
		return nil
	},
}
