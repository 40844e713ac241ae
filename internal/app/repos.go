package app

import (
	"gorm.io/gorm"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/repos"
)

type Repos struct {
	Project        repos.ProjectRepo
	CompanyProfile repos.CompanyProfileRepo
	Requirement    repos.RequirementRepo
	ReferenceDoc   repos.ReferenceDocRepo
	Question       repos.QuestionRepo
	AnswerVersion  repos.AnswerVersionRepo
	Answer         repos.AnswerRepo
	GenerationRun  repos.GenerationRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Project:        repos.NewProjectRepo(db, log),
		CompanyProfile: repos.NewCompanyProfileRepo(db, log),
		Requirement:    repos.NewRequirementRepo(db, log),
		ReferenceDoc:   repos.NewReferenceDocRepo(db, log),
		Question:       repos.NewQuestionRepo(db, log),
		AnswerVersion:  repos.NewAnswerVersionRepo(db, log),
		Answer:         repos.NewAnswerRepo(db, log),
		GenerationRun:  repos.NewGenerationRunRepo(db, log),
	}
}
