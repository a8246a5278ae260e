package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	employeedm "github.com/frahmantamala/construction-crm/internal/core/datamodel/employee"
	materialdm "github.com/frahmantamala/construction-crm/internal/core/datamodel/material"
	payrolldm "github.com/frahmantamala/construction-crm/internal/core/datamodel/payroll"
	"github.com/frahmantamala/construction-crm/internal/core/events"
	"github.com/frahmantamala/construction-crm/internal/realtime"
	feedstore "github.com/frahmantamala/construction-crm/internal/realtime/postgres"
	"github.com/frahmantamala/construction-crm/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// seedUser carries the extra login fields that are persisted alongside the
// employee document but ignored by the directory decoder.
type seedUser struct {
	employeedm.Employee
	PasswordHash string `json:"password_hash"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the feed collections with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)
		lg := logger.LoggerWrapper()

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm over db connection: %v", err)
		}

		if clearData {
			if err := gormDB.Exec("DELETE FROM feed_documents").Error; err != nil {
				log.Fatalf("failed to clear feed documents: %v", err)
			}
			fmt.Println("Cleared existing feed documents")
		}

		store := feedstore.NewStore(gormDB, realtime.NewHub(events.NewEventBus(lg), lg), lg)
		ctx := context.Background()

		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		users := []seedUser{
			{Employee: employeedm.Employee{ID: "emp-001", DisplayName: "Budi Santoso", Username: "budi", Role: "engineer"}},
			{Employee: employeedm.Employee{ID: "emp-002", DisplayName: "Siti Rahayu", Username: "siti", Role: "engineer"}},
			{Employee: employeedm.Employee{ID: "emp-003", DisplayName: "Agus Wijaya", Username: "agus", Role: "hr"}},
			{Employee: employeedm.Employee{ID: "emp-004", DisplayName: "Dewi Lestari", Username: "dewi", Role: "finance"}},
			{Employee: employeedm.Employee{ID: "emp-005", DisplayName: "Padil Admin", Username: "padil", Role: "admin"}},
		}
		for i := range users {
			users[i].PasswordHash = string(hash)
			if err := store.Set(ctx, realtime.CollectionUsers, users[i].ID, users[i]); err != nil {
				log.Fatalf("failed to seed user %s: %v", users[i].ID, err)
			}
		}
		fmt.Printf("Seeded %d users\n", len(users))

		materials := []materialdm.Material{
			{ID: "mat-001", Name: "semen portland 50kg", UnitPriceIDR: 75_000},
			{ID: "mat-002", Name: "besi beton 10mm", UnitPriceIDR: 62_000},
			{ID: "mat-003", Name: "pasir cor per m3", UnitPriceIDR: 350_000},
			{ID: "mat-004", Name: "bata merah per 1000", UnitPriceIDR: 900_000},
			{ID: "mat-005", Name: "cat tembok 25kg", UnitPriceIDR: 620_000},
		}
		for _, m := range materials {
			if err := store.Set(ctx, realtime.CollectionMaterials, m.ID, m); err != nil {
				log.Fatalf("failed to seed material %s: %v", m.ID, err)
			}
		}
		fmt.Printf("Seeded %d materials\n", len(materials))

		now := time.Now()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, cfg.Payroll.Location())
		requests := []materialdm.MaterialRequest{
			{
				ID: "req-001", MaterialID: "mat-001", Quantity: 40,
				UserID: "emp-001", Username: "budi",
				RequestedAt: monthStart.Add(48 * time.Hour).UnixMilli(),
				RespondedAt: monthStart.Add(72 * time.Hour).UnixMilli(),
				Status:      materialdm.StatusApproved, ResponseMessage: "stok tersedia",
			},
			{
				ID: "req-002", MaterialID: "mat-003", Quantity: 3,
				UserID: "emp-002", Username: "siti",
				RequestedAt: monthStart.Add(96 * time.Hour).UnixMilli(),
				RespondedAt: monthStart.Add(120 * time.Hour).UnixMilli(),
				Status:      materialdm.StatusApproved, ResponseMessage: "",
			},
			{
				ID: "req-003", MaterialID: "mat-002", Quantity: 120,
				UserID: "emp-001", Username: "budi",
				RequestedAt: monthStart.Add(150 * time.Hour).UnixMilli(),
				Status:      materialdm.StatusPending,
			},
			{
				ID: "req-004", MaterialID: "mat-004", Quantity: 2,
				UserID: "emp-002", Username: "siti",
				RequestedAt: monthStart.Add(160 * time.Hour).UnixMilli(),
				RespondedAt: monthStart.Add(170 * time.Hour).UnixMilli(),
				Status:      materialdm.StatusRejected, ResponseMessage: "anggaran bulan ini habis",
			},
		}
		for _, r := range requests {
			if err := store.Set(ctx, realtime.CollectionMaterialRequests, r.ID, r); err != nil {
				log.Fatalf("failed to seed material request %s: %v", r.ID, err)
			}
		}
		fmt.Printf("Seeded %d material requests\n", len(requests))

		month := payrolldm.MonthKey(now.Year(), int(now.Month()))
		records := []payrolldm.PayrollRecord{
			{
				EmployeeID: "emp-001", Month: month,
				BaseSalaryIDR: 6_500_000, OvertimeHours: 12, OvertimePayIDR: 540_000,
				Allowances: []payrolldm.Allowance{{Label: "transport", AmountIDR: 500_000}},
				Deductions: []payrolldm.Deduction{{Label: "bpjs", AmountIDR: 260_000, Statutory: true}},
				PaymentStatus: payrolldm.PaymentStatusPending, AttendanceDays: 22,
			},
			{
				EmployeeID: "emp-002", Month: month,
				BaseSalaryIDR: 6_200_000, OvertimeHours: 4, OvertimePayIDR: 180_000,
				Allowances: []payrolldm.Allowance{{Label: "transport", AmountIDR: 500_000}, {Label: "meal", AmountIDR: 440_000}},
				Deductions: []payrolldm.Deduction{{Label: "bpjs", AmountIDR: 248_000, Statutory: true}},
				PaymentStatus: payrolldm.PaymentStatusPaid, AttendanceDays: 21,
			},
			{
				EmployeeID: "emp-003", Month: month,
				BaseSalaryIDR: 7_000_000,
				Deductions:    []payrolldm.Deduction{{Label: "bpjs", AmountIDR: 280_000, Statutory: true}, {Label: "cash advance", AmountIDR: 1_000_000}},
				PaymentStatus: payrolldm.PaymentStatusDisputed, AttendanceDays: 20,
			},
		}
		for _, rec := range records {
			docID := payrolldm.Key(rec.EmployeeID, rec.Month)
			if err := store.Set(ctx, realtime.CollectionPayrollRecords, docID, rec); err != nil {
				log.Fatalf("failed to seed payroll record %s: %v", docID, err)
			}
		}
		fmt.Printf("Seeded %d payroll records for %s\n", len(records), month)
	},
}
