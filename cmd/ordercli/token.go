package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ordercore/internal/config"
	appctx "ordercore/internal/core/context"
	"ordercore/internal/core/security"
	"ordercore/internal/domain/auth"
)

// rolePermissions is what each built-in role receives unless --perm is given.
var rolePermissions = map[security.Role][]security.Permission{
	security.RoleAccountant: {
		security.PermissionDocumentsRead,
		security.PermissionDocumentsWrite,
		security.PermissionPaymentsWrite,
	},
	security.RoleClerk: {
		security.PermissionDocumentsRead,
		security.PermissionDocumentsWrite,
	},
	security.RoleViewer: {
		security.PermissionDocumentsRead,
	},
}

type tokenOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		Long: `Sign an access token with JWT_SECRET (or --secret).
Intended for local testing against a server with AUTH_REQUIRED=true.`,
		Example: `  ordercli token --role clerk
  ordercli token --role admin --user 7b1c...`,
		Args: cobra.NoArgs,
		RunE: runToken,
	}
	cmd.Flags().String("user", "", "User ID (default: random UUID)")
	cmd.Flags().String("role", string(security.RoleClerk), "Role: admin, accountant, clerk, viewer")
	cmd.Flags().StringSlice("perm", nil, "Explicit permissions, replacing the role defaults")
	cmd.Flags().String("secret", "", "Signing secret (default: JWT_SECRET)")
	cmd.Flags().Duration("ttl", 0, "Token lifetime (default: 15m)")
	return cmd
}

func runToken(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	role, _ := cmd.Flags().GetString("role")
	perms, _ := cmd.Flags().GetStringSlice("perm")
	secret, _ := cmd.Flags().GetString("secret")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if secret == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		secret = cfg.JWTSecret
	}
	if userID == "" {
		userID = uuid.NewString()
	}

	user := appctx.UserContext{
		UserID:  userID,
		Roles:   []string{role},
		IsAdmin: security.Role(role) == security.RoleAdmin,
	}
	if len(perms) > 0 {
		user.Permissions = perms
	} else {
		for _, p := range rolePermissions[security.Role(role)] {
			user.Permissions = append(user.Permissions, string(p))
		}
	}

	jwtCfg := auth.DefaultJWTConfig(secret)
	if ttl > 0 {
		jwtCfg.AccessTokenTTL = ttl
	}

	token, expiresAt, err := auth.NewJWTService(jwtCfg).GenerateAccessToken(user)
	if err != nil {
		return err
	}

	return printJSON(cmd, tokenOutput{Token: token, ExpiresAt: expiresAt, UserID: userID})
}
