package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	authdomain "github.com/smallbiznis/ppmp/internal/auth/domain"
	disbursementdomain "github.com/smallbiznis/ppmp/internal/disbursement/domain"
	notificationdomain "github.com/smallbiznis/ppmp/internal/notification/domain"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	purchasedomain "github.com/smallbiznis/ppmp/internal/purchaserequest/domain"
	referencedomain "github.com/smallbiznis/ppmp/internal/reference/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Closing the migrator would close the shared *sql.DB.

	return nil
}

// Models lists every table the service owns or reads, in dependency order.
func Models() []any {
	return []any{
		&referencedomain.Department{},
		&authdomain.User{},
		&authdomain.Session{},
		&referencedomain.Product{},
		&ppmpdomain.Plan{},
		&ppmpdomain.LineItem{},
		&ppmpdomain.BudgetAllocation{},
		&ppmpdomain.ProcurementActivity{},
		&disbursementdomain.Voucher{},
		&disbursementdomain.Link{},
		&purchasedomain.PurchaseRequest{},
		&purchasedomain.Line{},
		&auditdomain.AuditLog{},
		&notificationdomain.Notification{},
	}
}

// AutoMigrate builds the schema from the models for sqlite and mysql, which
// the SQL migrations do not target.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(Models()...)
}
