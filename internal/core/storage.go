package core

import (
	"fmt"
	"os"

	"staffmap/internal/infra/persistence/memory"
	"staffmap/internal/infra/persistence/postgres"
	"staffmap/internal/infra/persistence/sqlite"
	"staffmap/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	STAFFMAP_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	STAFFMAP_SQLITE_PATH: path to sqlite file (default ./staffmap.db)
//	STAFFMAP_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *domain.RulesEngine) (domain.PersistentStore, error) {
	driver := os.Getenv("STAFFMAP_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("STAFFMAP_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("STAFFMAP_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// MetricsDriver identifies a metrics recorder implementation.
type MetricsDriver string

const (
	MetricsPrometheus MetricsDriver = "prometheus" // prometheus collectors, scraped via /metrics
	MetricsExpvar     MetricsDriver = "expvar"     // process-local counters under /debug/vars
)

// OpenMetricsRecorder selects a metrics recorder using environment
// variables. Defaults to prometheus when unset.
//
//	STAFFMAP_METRICS_DRIVER: prometheus|expvar (default prometheus)
func OpenMetricsRecorder() (MetricsRecorder, error) {
	driver := os.Getenv("STAFFMAP_METRICS_DRIVER")
	if driver == "" {
		driver = string(MetricsPrometheus)
	}
	switch MetricsDriver(driver) {
	case MetricsPrometheus:
		return NewPrometheusMetricsRecorder(nil)
	case MetricsExpvar:
		return NewExpvarMetricsRecorder("staffmap_service_metrics"), nil
	default:
		return nil, fmt.Errorf("unknown metrics driver %s", driver)
	}
}
