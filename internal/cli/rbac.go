package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/content-console/internal/dto"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

func addRBAC(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "rbac",
		Short: "Manage roles and permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	permissions := &cobra.Command{
		Use:   "permissions",
		Short: "List permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			perms, err := a.client.ListPermissions(commandContext(cmd))
			if err != nil {
				return err
			}
			printPermissions(out(cmd), perms)
			return nil
		},
	}

	po := &pageOptions{}
	roles := &cobra.Command{
		Use:   "roles",
		Short: "List roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.client.ListRoles(commandContext(cmd), po.Search, po.Page, a.pageSize(po.PageSize))
			if err != nil {
				return err
			}
			printRoles(out(cmd), page)
			return nil
		},
	}
	roles.Flags().IntVar(&po.Page, "page", 0, "Zero-based page number.")
	roles.Flags().IntVar(&po.PageSize, "page-size", 0, "Rows per page.")
	roles.Flags().StringVarP(&po.Search, "search", "s", "", "Search term.")

	var ro dto.RoleRequest
	var description string
	createRole := &cobra.Command{
		Use:   "create-role <code>",
		Short: "Create a role",
		Args:  cobra.ExactArgs(1),
		Example: `
consolectl rbac create-role MAPPER --name Mapper --permissions content:read,content:map
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ro.Code = strings.ToUpper(args[0])
			if ro.Name == "" {
				ro.Name = ro.Code
			}
			if cmd.Flags().Changed("description") {
				ro.Description = &description
			}
			role, err := a.client.CreateRole(commandContext(cmd), ro)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out(cmd), success.Sprintf("Created role %s (%d)", role.Code, role.ID))
			return nil
		},
	}
	createRole.Flags().StringVar(&ro.Name, "name", "", "Display name.")
	createRole.Flags().StringVar(&description, "description", "", "Description.")
	createRole.Flags().StringSliceVar(&ro.Permissions, "permissions", nil, "Permission codes.")

	grant := &cobra.Command{
		Use:   "grant <role-id> <permission>...",
		Short: "Replace the permissions of a role",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return appErrors.Clone(appErrors.ErrValidation, "invalid role id "+args[0])
			}
			role, err := a.client.SetRolePermissions(commandContext(cmd), id, args[1:])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out(cmd), "%s: %s\n", role.Code, strings.Join(role.Permissions, ", "))
			return nil
		},
	}

	assign := &cobra.Command{
		Use:   "assign <user-id> <role>",
		Short: "Assign a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := strings.ToUpper(args[1])
			if err := a.client.AssignRole(commandContext(cmd), args[0], role); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out(cmd), success.Sprintf("User %s is now %s", args[0], role))
			return nil
		},
	}

	cmd.AddCommand(permissions, roles, createRole, grant, assign)
	topLevel.AddCommand(cmd)
}
