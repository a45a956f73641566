// Command seed provisions a development database: a default fee structure,
// demo office accounts, and a handful of students spread across grades.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidyalaya/fees-api/internal/models"
	"github.com/vidyalaya/fees-api/internal/repository"
	"github.com/vidyalaya/fees-api/pkg/config"
	"github.com/vidyalaya/fees-api/pkg/database"
)

func main() {
	var (
		adminEmail    string
		adminPassword string
		students      int
	)

	flag.StringVar(&adminEmail, "admin-email", "admin@vidyalaya.local", "email for the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "admin12345", "password for the seeded admin account")
	flag.IntVar(&students, "students", 10, "number of demo students to create")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	structureRepo := repository.NewFeeStructureRepository(db)

	if err := seedAdmin(ctx, userRepo, adminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	if err := seedStructure(ctx, structureRepo, adminEmail); err != nil {
		log.Fatalf("failed to seed fee structure: %v", err)
	}

	if err := seedStudents(ctx, studentRepo, students); err != nil {
		log.Fatalf("failed to seed students: %v", err)
	}

	log.Printf("seed complete: admin %s, %d students", adminEmail, students)
}

func seedAdmin(ctx context.Context, repo *repository.UserRepository, email, password string) error {
	if existing, err := repo.FindByEmail(ctx, email); err == nil && existing != nil {
		log.Printf("admin %s already exists, skipping", email)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Office Administrator",
		Role:         models.RoleAdmin,
		Active:       true,
	})
}

func seedStructure(ctx context.Context, repo *repository.FeeStructureRepository, updatedBy string) error {
	if existing, err := repo.Get(ctx); err == nil && existing != nil {
		log.Printf("fee structure already present at version %d, skipping", existing.Version)
		return nil
	}

	structure := models.DefaultFeeStructure()
	structure.Set1.Heads = []models.FeeHead{
		{ID: "admission", Name: "Admission Fee", Amount: 1500, Type: models.FeeHeadOneTime},
		{ID: "tuition", Name: "Tuition Fee", Amount: 400, Type: models.FeeHeadMonthly},
	}
	structure.Set2.Heads = []models.FeeHead{
		{ID: "admission", Name: "Admission Fee", Amount: 2000, Type: models.FeeHeadOneTime},
		{ID: "tuition", Name: "Tuition Fee", Amount: 500, Type: models.FeeHeadMonthly},
		{ID: "exam", Name: "Exam Fee", Amount: 450, Type: models.FeeHeadTerm},
	}
	structure.Set3.Heads = []models.FeeHead{
		{ID: "admission", Name: "Admission Fee", Amount: 2500, Type: models.FeeHeadOneTime},
		{ID: "tuition", Name: "Tuition Fee", Amount: 650, Type: models.FeeHeadMonthly},
		{ID: "exam", Name: "Exam Fee", Amount: 550, Type: models.FeeHeadTerm},
	}
	version, err := repo.Replace(ctx, &structure, 0, updatedBy)
	if err != nil {
		return err
	}
	log.Printf("fee structure seeded at version %d", version)
	return nil
}

func seedStudents(ctx context.Context, repo *repository.StudentRepository, count int) error {
	grades := models.GradeOrder
	created := 0
	for i := 0; i < count; i++ {
		admissionNo := fmt.Sprintf("ADM-%04d", i+1)
		exists, err := repo.ExistsByAdmissionNo(ctx, admissionNo, "")
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		student := &models.Student{
			AdmissionNo:     admissionNo,
			FullName:        fmt.Sprintf("Demo Student %d", i+1),
			Grade:           grades[i%len(grades)],
			Active:          true,
			FeePayments:     models.DefaultPayments(),
			PaymentsVersion: 1,
		}
		if err := repo.Create(ctx, student); err != nil {
			return err
		}
		created++
	}
	log.Printf("%d students created", created)
	return nil
}
