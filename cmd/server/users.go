package main

import (
	"errors"
	"strings"

	"ottobite-backend/internal/auth"
	"ottobite-backend/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// create-user: ilk yönetici hesabını açmak için (kayıt ekranı yok)
func createUserCmd() *cobra.Command {
	var (
		username, password, fullName, role, department string
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Kullanıcı oluşturur",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || len(password) < 6 || fullName == "" {
				return errors.New("--username, --full-name ve en az 6 karakterli --password zorunlu")
			}
			r := models.UserRole(strings.ToUpper(role))
			switch r {
			case models.RoleAdmin, models.RoleChef, models.RoleStaff:
			default:
				return errors.New("--role ADMIN, CHEF veya STAFF olmalı")
			}

			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			user := models.User{
				FullName:     fullName,
				Username:     strings.ToLower(strings.TrimSpace(username)),
				PasswordHash: hash,
				Role:         r,
				Department:   department,
			}
			if err := a.db.Create(&user).Error; err != nil {
				return err
			}
			a.log.Info("user created", zap.Uint("id", user.ID), zap.String("username", user.Username), zap.String("role", string(user.Role)))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "kullanıcı adı")
	cmd.Flags().StringVar(&password, "password", "", "şifre")
	cmd.Flags().StringVar(&fullName, "full-name", "", "ad soyad")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "ADMIN | CHEF | STAFF")
	cmd.Flags().StringVar(&department, "department", "", "departman")
	return cmd
}
