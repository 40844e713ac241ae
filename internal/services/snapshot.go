package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
	"github.com/quillhq/rfpdesk-backend/internal/repos"
	"github.com/quillhq/rfpdesk-backend/internal/types"
)

// ProjectSnapshot carries the current state of the three project-level input
// categories plus their fingerprints. The question category is per-answer and
// fingerprinted separately.
type ProjectSnapshot struct {
	ProfileFields map[string]*string
	Requirements  []*types.Requirement
	ReferenceDocs []*types.ReferenceDoc

	ProfileHash       string
	RequirementsHash  string
	ReferenceDocsHash string
	Counts            types.SourceCounts
}

// ContextFor builds the immutable fingerprint snapshot to record on an answer
// generated against this project state and question text.
func (s *ProjectSnapshot) ContextFor(questionText string) types.GenerationContext {
	return types.GenerationContext{
		CompanyProfileHash: s.ProfileHash,
		RequirementsHash:   s.RequirementsHash,
		ReferenceDocsHash:  s.ReferenceDocsHash,
		QuestionHash:       FingerprintQuestion(questionText),
		GeneratedAt:        time.Now().UTC(),
		SourceCounts:       s.Counts,
	}
}

type SnapshotService interface {
	CurrentForProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*ProjectSnapshot, error)
}

type snapshotService struct {
	log         *logger.Logger
	profileRepo repos.CompanyProfileRepo
	reqRepo     repos.RequirementRepo
	docRepo     repos.ReferenceDocRepo
}

func NewSnapshotService(
	baseLog *logger.Logger,
	profileRepo repos.CompanyProfileRepo,
	reqRepo repos.RequirementRepo,
	docRepo repos.ReferenceDocRepo,
) SnapshotService {
	return &snapshotService{
		log:         baseLog.With("service", "SnapshotService"),
		profileRepo: profileRepo,
		reqRepo:     reqRepo,
		docRepo:     docRepo,
	}
}

func (s *snapshotService) CurrentForProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (*ProjectSnapshot, error) {
	profile, err := s.profileRepo.GetByProjectID(ctx, tx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load company profile: %w", err)
	}
	requirements, err := s.reqRepo.GetByProjectID(ctx, tx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}
	docs, err := s.docRepo.GetByProjectID(ctx, tx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load reference docs: %w", err)
	}

	var fields map[string]*string
	if profile != nil && len(profile.Fields) > 0 {
		if err := json.Unmarshal(profile.Fields, &fields); err != nil {
			return nil, fmt.Errorf("decode profile fields: %w", err)
		}
	}

	reqItems := make([]RequirementItem, 0, len(requirements))
	for _, r := range requirements {
		reqItems = append(reqItems, RequirementItem{
			ID:      r.ID.String(),
			Title:   r.Title,
			Content: r.Content,
		})
	}
	docItems := make([]ReferenceDocItem, 0, len(docs))
	for _, d := range docs {
		docItems = append(docItems, ReferenceDocItem{
			ID:   d.ID.String(),
			Text: d.ExtractedText,
		})
	}

	return &ProjectSnapshot{
		ProfileFields:     fields,
		Requirements:      requirements,
		ReferenceDocs:     docs,
		ProfileHash:       FingerprintProfile(fields),
		RequirementsHash:  FingerprintRequirements(reqItems),
		ReferenceDocsHash: FingerprintReferenceDocs(docItems),
		Counts: types.SourceCounts{
			RequirementCount:  len(requirements),
			ReferenceDocCount: len(docs),
		},
	}, nil
}
