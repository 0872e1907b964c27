package models

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/pkg/utils"
)

// URLFileType is the file type recorded for link documents.
const URLFileType = "URL"

var documentNamePattern = regexp.MustCompile(`^[0-9a-zA-Z_\-. ]+$`)

// OwnerKind names the record type a document is attached to.
type OwnerKind string

const (
	OwnerCompany    OwnerKind = "company"
	OwnerIndividual OwnerKind = "individual"
	OwnerProgramme  OwnerKind = "programme"
)

// Owner identifies the single record a document belongs to.
type Owner struct {
	Kind OwnerKind
	ID   uint
}

// Document is either an uploaded file or an external link.
type Document struct {
	ID           uint      `gorm:"primaryKey;column:file_id" json:"file_id"`
	FileName     string    `gorm:"size:254;not null" json:"file_name"`
	FileType     string    `gorm:"size:254;not null" json:"file_type"`
	FileSize     int64     `gorm:"not null;default:0;check:file_size >= 0" json:"file_size"`
	URL          *string   `gorm:"size:200;check:chk_documents_url_or_file,(url IS NULL OR url = '') <> (file_path IS NULL OR file_path = '')" json:"url,omitempty"`
	FilePath     *string   `gorm:"size:500" json:"file_path,omitempty"`
	CompanyID    *uint     `gorm:"index;check:chk_documents_single_owner,(CASE WHEN company_id IS NULL THEN 0 ELSE 1 END + CASE WHEN individual_id IS NULL THEN 0 ELSE 1 END + CASE WHEN programme_id IS NULL THEN 0 ELSE 1 END) = 1" json:"company_id,omitempty"`
	IndividualID *uint     `gorm:"index" json:"individual_id,omitempty"`
	ProgrammeID  *uint     `gorm:"index" json:"programme_id,omitempty"`
	IsPrivate    bool      `gorm:"not null;default:false" json:"is_private"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FileTypeOf returns the last dot-separated segment of name.
func FileTypeOf(name string) string {
	parts := strings.Split(name, ".")
	return parts[len(parts)-1]
}

func newOwnedDocument(owner Owner) (*Document, *e.ValidationError) {
	v := e.NewValidationError()
	d := &Document{}
	if owner.ID == 0 {
		v.Add(e.NonFieldKey, "Document must be associated with a company, individual or programme.")
		return d, v
	}
	switch owner.Kind {
	case OwnerCompany:
		d.CompanyID = utils.Ptr(owner.ID)
	case OwnerIndividual:
		d.IndividualID = utils.Ptr(owner.ID)
	case OwnerProgramme:
		d.ProgrammeID = utils.Ptr(owner.ID)
	default:
		v.Add(e.NonFieldKey, "Document must be associated with a company, individual or programme.")
	}
	return d, v
}

// NewFileDocument describes an upload before it is written to storage. The
// caller sets FilePath once the bytes are stored.
func NewFileDocument(owner Owner, uploadedName string, size int64, isPrivate bool) (*Document, error) {
	d, v := newOwnedDocument(owner)
	name := filepath.Base(strings.ReplaceAll(uploadedName, "\\", "/"))
	if uploadedName == "" || name == "." || name == "/" {
		v.Add("file", "This field is required.")
	} else {
		d.FileName = name
		d.FileType = FileTypeOf(name)
		checkDocumentNames(v, d)
	}
	if size < 0 {
		v.Add("file", "File size must not be negative.")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	d.FileSize = size
	d.IsPrivate = isPrivate
	return d, nil
}

// NewURLDocument describes a link document.
func NewURLDocument(owner Owner, name, link string, isPrivate bool) (*Document, error) {
	d, v := newOwnedDocument(owner)
	if required(v, "file_name", name) {
		d.FileName = name
		d.FileType = URLFileType
		checkDocumentNames(v, d)
	}
	if required(v, "url", link) {
		maxLen(v, "url", link, 200)
		validURL(v, "url", link)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	d.URL = &link
	d.IsPrivate = isPrivate
	return d, nil
}

func checkDocumentNames(v *e.ValidationError, d *Document) {
	maxLen(v, "file_name", d.FileName, 254)
	matches(v, "file_name", d.FileName, documentNamePattern,
		"Document name must consist of up to 254 valid characters: 0-9 a-z A-Z _ - . and spaces")
	maxLen(v, "file_type", d.FileType, 254)
	matches(v, "file_type", d.FileType, documentNamePattern,
		"Document type must consist of up to 254 valid characters: 0-9 a-z A-Z _ - . and spaces")
}

// Validate checks both exclusivity rules on a fully populated document.
func (d *Document) Validate() error {
	v := e.NewValidationError()
	owners := 0
	for _, id := range []*uint{d.CompanyID, d.IndividualID, d.ProgrammeID} {
		if id != nil {
			owners++
		}
	}
	if owners != 1 {
		v.Add(e.NonFieldKey, "Document must be associated with exactly one company, individual or programme.")
	}
	if d.HasURL() == d.HasFile() {
		v.Add(e.NonFieldKey, "Document must have either a file or a URL.")
	}
	checkDocumentNames(v, d)
	return v.OrNil()
}

func (d *Document) HasURL() bool  { return utils.Deref(d.URL) != "" }
func (d *Document) HasFile() bool { return utils.Deref(d.FilePath) != "" }

// Owner returns the record the document is attached to.
func (d *Document) Owner() Owner {
	switch {
	case d.CompanyID != nil:
		return Owner{Kind: OwnerCompany, ID: *d.CompanyID}
	case d.IndividualID != nil:
		return Owner{Kind: OwnerIndividual, ID: *d.IndividualID}
	case d.ProgrammeID != nil:
		return Owner{Kind: OwnerProgramme, ID: *d.ProgrammeID}
	}
	return Owner{}
}
