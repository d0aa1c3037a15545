package database

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/costline/porecon/cache"
	"github.com/costline/porecon/config"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn  *sql.DB
	Cache cache.Cache
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		var ca cache.Cache
		if configuration.Redis.Dns != "" {
			ca, errConn = cache.NewCache()
			if errConn != nil {
				log.Printf("cache disabled: %v", errConn)
				ca = nil
			}
		}
		instance = &Datasource{Conn: con, Cache: ca}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// ConnectDB opens the Postgres connection, retrying the initial ping with
// exponential backoff so the engine survives a database that is still
// starting, then creates the tables it depends on.
func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}

	pingPolicy := backoff.NewExponentialBackOff()
	pingPolicy.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(func() error {
		return db.Ping()
	}, pingPolicy)
	if err != nil {
		log.Printf("database connection error ❌: %v", err)
		return nil, errors.Wrap(err, "database ping failed")
	}

	err = createPOLineTable(db)
	if err != nil {
		return nil, err
	}
	err = createPostingTable(db)
	if err != nil {
		return nil, err
	}
	err = createCostImpactTable(db)
	if err != nil {
		return nil, err
	}
	err = createGRIRExposureTable(db)
	if err != nil {
		return nil, err
	}
	err = createCostAllocationTable(db)
	if err != nil {
		return nil, err
	}
	err = createMappingTable(db)
	if err != nil {
		return nil, err
	}
	err = createPreMappingTable(db)
	if err != nil {
		return nil, err
	}
	err = createReconciliationRunTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createPOLineTable creates a PostgreSQL table for the POLine struct
func createPOLineTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS po_line_items (
			id SERIAL PRIMARY KEY,
			po_line_id TEXT NOT NULL UNIQUE,
			po_number TEXT NOT NULL,
			pr_number TEXT,
			pr_line TEXT,
			vendor_category TEXT,
			account_assignment_category TEXT,
			ordered_qty DOUBLE PRECISION NOT NULL DEFAULT 0,
			ordered_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			receipt_status TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			open_qty DOUBLE PRECISION NOT NULL DEFAULT 0,
			open_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		)
	`)
	log.Println(err)
	return err
}

// createPostingTable creates a PostgreSQL table for the Posting struct
func createPostingTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS po_postings (
			id SERIAL PRIMARY KEY,
			posting_id TEXT NOT NULL UNIQUE,
			po_line_id TEXT NOT NULL,
			posting_type TEXT NOT NULL CHECK (posting_type IN ('GR', 'IR')),
			posting_date TIMESTAMP NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}

// createCostImpactTable creates a PostgreSQL table for the CostImpactRecord struct
func createCostImpactTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cost_impact_records (
			id SERIAL PRIMARY KEY,
			po_line_id TEXT NOT NULL,
			posting_id TEXT NOT NULL,
			posting_type TEXT NOT NULL,
			posting_date TIMESTAMP NOT NULL,
			posting_qty DOUBLE PRECISION NOT NULL,
			impact_qty DOUBLE PRECISION NOT NULL,
			impact_amount DOUBLE PRECISION NOT NULL,
			cumulative_qty DOUBLE PRECISION NOT NULL,
			run_id TEXT NOT NULL
		)
	`)
	log.Println(err)
	return err
}

// createGRIRExposureTable creates a PostgreSQL table for the GRIRExposureSnapshot struct
func createGRIRExposureTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS grir_exposures (
			id SERIAL PRIMARY KEY,
			po_line_id TEXT NOT NULL,
			snapshot_date DATE NOT NULL,
			grir_qty DOUBLE PRECISION NOT NULL,
			grir_value DOUBLE PRECISION NOT NULL,
			first_exposure_date TIMESTAMP,
			days_open INTEGER NOT NULL DEFAULT 0,
			time_bucket TEXT NOT NULL,
			UNIQUE (po_line_id, snapshot_date)
		)
	`)
	log.Println(err)
	return err
}

// createCostAllocationTable creates a PostgreSQL table for the CostAllocation struct
func createCostAllocationTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cost_allocations (
			id SERIAL PRIMARY KEY,
			allocation_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}

// createMappingTable creates a PostgreSQL table for the Mapping struct.
// The UNIQUE constraint on po_line_id is the invariant that a PO line has at
// most one mapping; concurrent writers race on it rather than on a check.
func createMappingTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS mappings (
			id SERIAL PRIMARY KEY,
			mapping_id TEXT NOT NULL UNIQUE,
			po_line_id TEXT NOT NULL UNIQUE,
			allocation_id TEXT NOT NULL REFERENCES cost_allocations(allocation_id),
			mapped_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			requires_confirmation BOOLEAN NOT NULL DEFAULT FALSE,
			confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			provenance TEXT NOT NULL CHECK (provenance IN ('manual', 'pre_mapping', 'bulk')),
			pre_mapping_id TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}

// createPreMappingTable creates a PostgreSQL table for the PreMapping struct
func createPreMappingTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pre_mappings (
			id SERIAL PRIMARY KEY,
			pre_mapping_id TEXT NOT NULL UNIQUE,
			pr_number TEXT NOT NULL,
			pr_line TEXT NOT NULL DEFAULT '',
			allocation_id TEXT NOT NULL REFERENCES cost_allocations(allocation_id),
			status TEXT NOT NULL CHECK (status IN ('active', 'closed', 'expired', 'cancelled')),
			expires_at TIMESTAMP,
			pending_count INTEGER NOT NULL DEFAULT 0,
			confirmed_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	log.Println(err)
	return err
}

// createReconciliationRunTable creates a PostgreSQL table for the ReconciliationRun struct
func createReconciliationRunTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reconciliation_runs (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			snapshot_date DATE NOT NULL,
			processed_lines INTEGER NOT NULL DEFAULT 0,
			orphan_postings INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMP
		)
	`)
	log.Println(err)
	return err
}
