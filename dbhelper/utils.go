package dbhelper

import (
	"wardrobewiz/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// children before parents
var cleanupOrder = []interface{}{
	&models.ModelInvocation{},
	&models.Outfit{},
	&models.InspirationImage{},
	&models.OutfitCollection{},
	&models.WardrobeItem{},
	&models.UserAccount{},
}

// SetupCleaner returns a func that empties every table, for use at the
// start and end of a test.
func SetupCleaner(db *gorm.DB) func() {
	return func() {
		session := db.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range cleanupOrder {
			if err := session.Unscoped().Delete(model).Error; err != nil {
				log.Error().Err(err).Msgf("cleanup %T", model)
			}
		}
	}
}

func Migrate(db *gorm.DB, model interface{}) {
	err := db.AutoMigrate(model)
	if err != nil {
		log.Fatal().Err(err).Msgf("error while migrating %T", model)
	}
}
