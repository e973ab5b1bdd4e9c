package bootstrap

import (
	"log"
	"os"

	"github.com/unicampus/portal/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Profile{},
		&entity.Conversation{},
		&entity.ConversationParticipant{},
		&entity.Message{},
		&entity.MessageRead{},
		&entity.AttendanceRecord{},
		&entity.Subject{},
		&entity.SubjectProfessor{},
		&entity.SubjectEnrollment{},
		&entity.Grade{},
		&entity.FinalExam{},
		&entity.FinalEnrollment{},
		&entity.CalendarEvent{},
		&entity.Note{},
		&entity.Suggestion{},
		&entity.Notification{},
	)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleAdmin, Description: "Portal administrator"},
		{Name: entity.RoleStudent, Description: "Student"},
		{Name: entity.RolePreceptor, Description: "Preceptor"},
		{Name: entity.RoleProfessor, Description: "Professor"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedAdminUser creates the bootstrap admin in development environments so a
// fresh database is usable immediately.
func SeedAdminUser(db *gorm.DB) error {
	var adminRole entity.Role
	if err := db.Where("name = ?", entity.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@unicampus.edu"
	}

	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := entity.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hashedPasswordBytes),
		RoleID:       &adminRole.ID,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	log.Printf("Admin user seeded: %s", email)
	return nil
}
