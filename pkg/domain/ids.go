package domain

import (
	"strconv"
	"strings"

	dErrors "sankalp/pkg/domain-errors"
)

// Typed identifiers for persisted records. Each record kind gets its own type so
// the compiler rejects passing a campaign id where a camp id is expected.
//
// Usage: construct via the ParseX functions at trust boundaries (path params,
// JSON bodies); stores assign ids on create.
type (
	ActorID            int64
	EducationRequestID int64
	LegalCampID        int64
	HospitalID         int64
	MedicalCampID      int64
	CampaignID         int64
	QuestionID         int64
	NotificationID     int64
	ArticleID          int64
)

type int64ID interface {
	~int64
}

// parseID enforces the shared invariant: ids are positive base-10 integers.
func parseID[T int64ID](s, label string) (T, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", label)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", label)
	}
	return T(n), nil
}

func ParseActorID(s string) (ActorID, error) { return parseID[ActorID](s, "actor id") }

func ParseEducationRequestID(s string) (EducationRequestID, error) {
	return parseID[EducationRequestID](s, "education request id")
}

func ParseLegalCampID(s string) (LegalCampID, error) { return parseID[LegalCampID](s, "legal camp id") }

func ParseHospitalID(s string) (HospitalID, error) { return parseID[HospitalID](s, "hospital id") }

func ParseMedicalCampID(s string) (MedicalCampID, error) {
	return parseID[MedicalCampID](s, "medical camp id")
}

func ParseCampaignID(s string) (CampaignID, error) { return parseID[CampaignID](s, "campaign id") }

func ParseQuestionID(s string) (QuestionID, error) { return parseID[QuestionID](s, "question id") }

func ParseArticleID(s string) (ArticleID, error) { return parseID[ArticleID](s, "article id") }

func (id ActorID) String() string            { return strconv.FormatInt(int64(id), 10) }
func (id EducationRequestID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id LegalCampID) String() string        { return strconv.FormatInt(int64(id), 10) }
func (id HospitalID) String() string         { return strconv.FormatInt(int64(id), 10) }
func (id MedicalCampID) String() string      { return strconv.FormatInt(int64(id), 10) }
func (id CampaignID) String() string         { return strconv.FormatInt(int64(id), 10) }
func (id QuestionID) String() string         { return strconv.FormatInt(int64(id), 10) }
func (id NotificationID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id ArticleID) String() string          { return strconv.FormatInt(int64(id), 10) }
