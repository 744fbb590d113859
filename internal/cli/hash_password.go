package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"cogbattery/internal/utils"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var hashPasswordCmd = &cobra.Command{
	Use:         "hash-password [password]",
	Short:       "Print the bcrypt hash for admin.password_hash",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"config": "skip"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if !utils.IsComplexPassword(password) {
			return errors.New("password needs at least 8 characters with upper and lower case letters, a digit and a symbol")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(hash))
		return nil
	},
}
