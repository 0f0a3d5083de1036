package repos

import (
	"gorm.io/gorm"

	"github.com/cartographai/discovery-backend/internal/data/repos/discovery"
	"github.com/cartographai/discovery-backend/internal/data/repos/taxonomy"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

type SessionRepo = discovery.SessionRepo
type MessageRepo = discovery.MessageRepo
type RoleMappingRepo = discovery.RoleMappingRepo
type ActivitySelectionRepo = discovery.ActivitySelectionRepo
type AnalysisResultRepo = discovery.AnalysisResultRepo
type RoadmapCandidateRepo = discovery.RoadmapCandidateRepo

type OccupationRepo = taxonomy.OccupationRepo
type ActivityRepo = taxonomy.ActivityRepo
type DetailedActivityRow = taxonomy.DetailedActivityRow

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return discovery.NewSessionRepo(db, baseLog)
}
func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return discovery.NewMessageRepo(db, baseLog)
}
func NewRoleMappingRepo(db *gorm.DB, baseLog *logger.Logger) RoleMappingRepo {
	return discovery.NewRoleMappingRepo(db, baseLog)
}
func NewActivitySelectionRepo(db *gorm.DB, baseLog *logger.Logger) ActivitySelectionRepo {
	return discovery.NewActivitySelectionRepo(db, baseLog)
}
func NewAnalysisResultRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisResultRepo {
	return discovery.NewAnalysisResultRepo(db, baseLog)
}
func NewRoadmapCandidateRepo(db *gorm.DB, baseLog *logger.Logger) RoadmapCandidateRepo {
	return discovery.NewRoadmapCandidateRepo(db, baseLog)
}
func NewOccupationRepo(db *gorm.DB, baseLog *logger.Logger) OccupationRepo {
	return taxonomy.NewOccupationRepo(db, baseLog)
}
func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return taxonomy.NewActivityRepo(db, baseLog)
}
