package main

import (
	"fmt"
	"time"

	"agri-supply/internal/config"
	"agri-supply/internal/middleware"
	"agri-supply/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

// tokenCmd mints a token for local testing; production tokens come from the identity service.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a development JWT with the configured secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenRole != models.RoleAdmin && tokenRole != models.RoleFarmer {
			return fmt.Errorf("role must be %q or %q", models.RoleAdmin, models.RoleFarmer)
		}
		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		signed, err := signToken(cfg.JWTSecret, tokenSubject, tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "sub", "", "user id to put in the subject claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", models.RoleAdmin, "admin or farmer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("sub")
}

func signToken(secret, sub, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
