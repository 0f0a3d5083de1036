package app

import (
	"gorm.io/gorm"

	"github.com/cartographai/discovery-backend/internal/data/repos"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

type Repos struct {
	Session    repos.SessionRepo
	Message    repos.MessageRepo
	Mapping    repos.RoleMappingRepo
	Selection  repos.ActivitySelectionRepo
	Result     repos.AnalysisResultRepo
	Candidate  repos.RoadmapCandidateRepo
	Occupation repos.OccupationRepo
	Activity   repos.ActivityRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Session:    repos.NewSessionRepo(db, log),
		Message:    repos.NewMessageRepo(db, log),
		Mapping:    repos.NewRoleMappingRepo(db, log),
		Selection:  repos.NewActivitySelectionRepo(db, log),
		Result:     repos.NewAnalysisResultRepo(db, log),
		Candidate:  repos.NewRoadmapCandidateRepo(db, log),
		Occupation: repos.NewOccupationRepo(db, log),
		Activity:   repos.NewActivityRepo(db, log),
	}
}
