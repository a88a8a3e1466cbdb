package shop

import (
	"github.com/ValentinKolb/dShop/lib/model"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	userCreateCmd = &cobra.Command{
		Use:   "create [username] [password]",
		Short: "Creates a user (the password is stored as bcrypt hash)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, _ := cmd.Flags().GetBool("admin")
			role := model.RoleUser
			if admin {
				role = model.RoleAdmin
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(args[1]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}

			user, err := rpcShop.CreateUser(model.InsertUser{
				Username: args[0],
				Password: string(hash),
				Role:     role,
			})
			if err != nil {
				return err
			}
			return printJSON(user.Public())
		},
	}
	userGetCmd = &cobra.Command{
		Use:   "get [id|username]",
		Short: "Reads a user by id or username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				user model.User
				err  error
			)
			if id, parseErr := parseID("id", args[0]); parseErr == nil {
				user, err = rpcShop.GetUser(id)
			} else {
				user, err = rpcShop.GetUserByUsername(args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(user.Public())
		},
	}
)

func init() {
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userGetCmd)

	userCreateCmd.Flags().Bool("admin", false, "Give the user the admin role")
}
