package entity

// ArticleType is a closed enum of publication types shared by every
// upstream source's normalization layer.
type ArticleType string

const (
	ArticleTypeJournalArticle ArticleType = "journal_article"
	ArticleTypeReview         ArticleType = "review"
	ArticleTypeMetaAnalysis   ArticleType = "meta_analysis"
	ArticleTypeSystematicRev  ArticleType = "systematic_review"
	ArticleTypeClinicalTrial  ArticleType = "clinical_trial"
	ArticleTypeRCT            ArticleType = "rct"
	ArticleTypeCaseReport     ArticleType = "case_report"
	ArticleTypeLetter         ArticleType = "letter"
	ArticleTypeEditorial      ArticleType = "editorial"
	ArticleTypeComment        ArticleType = "comment"
	ArticleTypePreprint       ArticleType = "preprint"
	ArticleTypeBookChapter    ArticleType = "book_chapter"
	ArticleTypeConference     ArticleType = "conference_paper"
	ArticleTypeThesis         ArticleType = "thesis"
	ArticleTypeDataset        ArticleType = "dataset"
	ArticleTypeOther          ArticleType = "other"
	ArticleTypeUnknown        ArticleType = "unknown"
)

// OpenAccessStatus is a closed enum following the Unpaywall taxonomy.
type OpenAccessStatus string

const (
	OAGold    OpenAccessStatus = "gold"
	OAGreen   OpenAccessStatus = "green"
	OAHybrid  OpenAccessStatus = "hybrid"
	OABronze  OpenAccessStatus = "bronze"
	OAClosed  OpenAccessStatus = "closed"
	OAUnknown OpenAccessStatus = "unknown"
)

func (s OpenAccessStatus) isOpen() bool {
	switch s {
	case OAGold, OAGreen, OAHybrid, OABronze:
		return true
	default:
		return false
	}
}
