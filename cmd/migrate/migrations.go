package main

import (
	"gorm.io/gorm"

	"github.com/opsledger/catalog/internal/models"
)

// registerModels returns all models that need migration.
func registerModels() []interface{} {
	return []interface{}{
		// catalog
		&models.Component{},
		&models.ComponentVersion{},

		// projects
		&models.Namespace{},
		&models.ProjectType{},
		&models.Project{},
		&models.ProjectFactType{},
		&models.ProjectFactTypeEnum{},
		&models.ProjectFactTypeRange{},
		&models.ProjectFactRow{},
		&models.ProjectLinkType{},
		&models.ProjectLink{},
		&models.Environment{},
		&models.ProjectURL{},
		&models.ProjectIdentifier{},
		&models.ProjectDependency{},

		// associations + derived state
		&models.ProjectComponent{},
		&models.ComponentScore{},
	}
}

// runMigrations executes all database migrations.
func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(registerModels()...); err != nil {
		return err
	}
	return runCustomMigrations(db)
}

// runCustomMigrations handles constraints AutoMigrate can't express.
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addComponentVersionFK,
		addProjectComponentFKs,
		addComponentScoreFKs,
	}
	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}
	return nil
}

// ensureFK recreates a named foreign key; Postgres has no
// ADD CONSTRAINT IF NOT EXISTS.
func ensureFK(db *gorm.DB, table, name, definition string) error {
	if err := db.Exec("ALTER TABLE " + table + " DROP CONSTRAINT IF EXISTS " + name).Error; err != nil {
		return err
	}
	return db.Exec("ALTER TABLE " + table + " ADD CONSTRAINT " + name + " " + definition).Error
}

func addComponentVersionFK(db *gorm.DB) error {
	return ensureFK(db, "component_versions", "fk_component_versions_component",
		`FOREIGN KEY (package_url) REFERENCES components (package_url)
		 ON UPDATE CASCADE ON DELETE CASCADE`)
}

func addProjectComponentFKs(db *gorm.DB) error {
	if err := ensureFK(db, "project_components", "fk_project_components_project",
		"FOREIGN KEY (project_id) REFERENCES projects (id) ON DELETE CASCADE"); err != nil {
		return err
	}
	return ensureFK(db, "project_components", "fk_project_components_version",
		"FOREIGN KEY (version_id) REFERENCES component_versions (id) ON DELETE CASCADE")
}

// component_scores.project_id intentionally has no ON DELETE CASCADE:
// the cascade coordinator relies on the foreign-key violation to detect
// projects deleted mid fan-out.
func addComponentScoreFKs(db *gorm.DB) error {
	if err := ensureFK(db, "component_scores", "fk_component_scores_project",
		"FOREIGN KEY (project_id) REFERENCES projects (id)"); err != nil {
		return err
	}
	return ensureFK(db, "component_scores", "fk_component_scores_component",
		`FOREIGN KEY (package_url) REFERENCES components (package_url)
		 ON UPDATE CASCADE ON DELETE CASCADE`)
}
