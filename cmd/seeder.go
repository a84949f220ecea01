package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/hospital-management/internal/auth"
	userDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample accounts for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			if err := db.Exec("DELETE FROM users").Error; err != nil {
				log.Fatalf("failed to clear users: %v", err)
			}
			fmt.Println("Cleared existing users")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BCryptCost)

		cardiology := "Cardiology"
		dermatology := "Dermatology"
		accounts := []userDatamodel.User{
			{Name: "Amara Silva", Email: "amara.silva@hospital.test", Role: auth.RoleDoctor, Specialization: &cardiology},
			{Name: "Ruwan Perera", Email: "ruwan.perera@hospital.test", Role: auth.RoleDoctor, Specialization: &dermatology},
			{Name: "Front Desk", Email: "frontdesk@hospital.test", Role: auth.RoleStaff},
			{Name: "Nadia Rahma", Email: "nadia.rahma@mail.test", Role: auth.RolePatient},
		}

		for _, account := range accounts {
			var exists int64
			db.Model(&userDatamodel.User{}).Where("email = ?", account.Email).Count(&exists)
			if exists > 0 {
				fmt.Printf("account already exists: %s\n", account.Email)
				continue
			}

			account.PasswordHash = string(hash)
			account.IsActive = true
			if err := db.Create(&account).Error; err != nil {
				log.Fatalf("failed to seed account %s: %v", account.Email, err)
			}
			fmt.Printf("Seeded %s account: %s\n", account.Role, account.Email)
		}

		fmt.Println("Seeding complete; all accounts use the password \"password\"")
	},
}
