package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users and bank branches for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"audit_logs", "application_documents", "archived_loan_applications", "loan_applications", "bank_branches", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password123"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUsers := []struct {
			Name     string
			Email    string
			Username string
			Role     string
		}{
			{"Admin", "admin@loanapp.local", "admin", "ADMIN"},
			{"Visithran", "visithran@mail.com", "visithran", "APPLICANT"},
		}

		for _, su := range seedUsers {
			var exists int
			if err := db.Raw("SELECT 1 FROM users WHERE email = ?", su.Email).Row().Scan(&exists); err == nil {
				fmt.Println("user already exists:", su.Email)
				continue
			}

			if err := db.Exec(
				"INSERT INTO users (name, email, username, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
				su.Name, su.Email, su.Username, string(hash), su.Role,
			).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", su.Email, err)
			}
			fmt.Println("Seeded user:", su.Email, "role:", su.Role)
		}

		branches := []struct {
			Name     string
			Location string
			Contact  string
			Email    string
		}{
			{"Chennai Main", "Chennai", "+91-44-2345-6789", "chennai@loanapp.local"},
			{"Coimbatore Central", "Coimbatore", "+91-422-234-5678", "coimbatore@loanapp.local"},
			{"Madurai East", "Madurai", "+91-452-234-5678", "madurai@loanapp.local"},
		}

		for _, b := range branches {
			var exists int
			if err := db.Raw("SELECT 1 FROM bank_branches WHERE branch_name = ?", b.Name).Row().Scan(&exists); err == nil {
				fmt.Println("branch already exists:", b.Name)
				continue
			}

			if err := db.Exec(
				"INSERT INTO bank_branches (branch_name, location, contact_number, email, active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
				b.Name, b.Location, b.Contact, b.Email,
			).Error; err != nil {
				log.Fatalf("failed to insert branch %s: %v", b.Name, err)
			}
			fmt.Println("Seeded bank branch:", b.Name)
		}

		fmt.Println("Seeding complete. Default password for seeded users:", password)
	},
}
