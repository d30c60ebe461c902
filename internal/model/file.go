// Package model contains the records shared by the ingestion pipeline, the HTTP
// layer and the persistence fan-out.
package model

import (
	"math"
	"time"
)

// FileType is the semantic tag assigned by the classifier. Declaring it as a
// named string type keeps the fixed tag set apart from arbitrary strings.
type FileType string

const (
	TypeJSON    FileType = "json"
	TypePDF     FileType = "pdf"
	TypeDOCX    FileType = "docx"
	TypeExcel   FileType = "excel"
	TypePPT     FileType = "ppt"
	TypeTXT     FileType = "txt"
	TypeCSV     FileType = "csv"
	TypeImage   FileType = "image"
	TypeZip     FileType = "zip"
	TypeUnknown FileType = "unknown"
)

// Status is the outcome of processing one logical file.
type Status string

const (
	StatusValidated Status = "validated"
	StatusRejected  Status = "rejected"
	StatusContainer Status = "container"
)

// ScanStatus is a static label describing the content check that ran. It is
// not the result of a malware scan.
type ScanStatus string

const (
	ScanClean         ScanStatus = "clean"
	ScanInvalidJSON   ScanStatus = "invalid_json"
	ScanNotApplicable ScanStatus = "not_applicable"
)

// MIMEZip is the MIME type reported for archive self records.
const MIMEZip = "application/zip"

// UploadItem is one uploaded file as handed over by the transport layer.
type UploadItem struct {
	Filename string
	Content  []byte
}

// ResultRecord describes one logical file: a top-level upload or an archive
// member. Pointer fields marshal as JSON null until a pipeline branch fills
// them in.
type ResultRecord struct {
	FileName   string      `json:"file_name"`
	FileType   *FileType   `json:"file_type"`
	SizeKB     *float64    `json:"size_kb"`
	Hash       *string     `json:"hash"`
	Status     *Status     `json:"status"`
	MIMEType   *string     `json:"mime_type"`
	UploadedAt time.Time   `json:"uploaded_at"`
	Duplicate  *bool       `json:"duplicate"`
	ScanStatus *ScanStatus `json:"scan_status"`
}

// NewRecord returns an empty shell stamped with the file name and the creation
// time in UTC. Every pipeline branch starts from this shell.
func NewRecord(name string, at time.Time) ResultRecord {
	return ResultRecord{
		FileName:   name,
		UploadedAt: at.UTC(),
	}
}

// Reject marks a record that never reached classification.
func (r *ResultRecord) Reject() {
	r.Status = ptr(StatusRejected)
	r.ScanStatus = ptr(ScanNotApplicable)
}

// Container fills the self record of an archive. Archive-level content is
// never deduplicated.
func (r *ResultRecord) Container(size int, hash string) {
	r.FileType = ptr(TypeZip)
	r.SizeKB = ptr(SizeKB(size))
	r.Hash = ptr(hash)
	r.Status = ptr(StatusContainer)
	r.MIMEType = ptr(MIMEZip)
	r.Duplicate = ptr(false)
	r.ScanStatus = ptr(ScanClean)
}

// Validated fills a record that went through the single-file path.
func (r *ResultRecord) Validated(fileType FileType, mimeType string, size int, hash string, duplicate bool) {
	r.FileType = ptr(fileType)
	r.SizeKB = ptr(SizeKB(size))
	r.Hash = ptr(hash)
	r.Status = ptr(StatusValidated)
	r.MIMEType = ptr(mimeType)
	r.Duplicate = ptr(duplicate)
	r.ScanStatus = ptr(ScanClean)
}

// InvalidJSON flips a validated JSON record to rejected. Type, MIME, size and
// hash are kept.
func (r *ResultRecord) InvalidJSON() {
	r.Status = ptr(StatusRejected)
	r.ScanStatus = ptr(ScanInvalidJSON)
}

// SizeKB converts a byte count to kibibytes rounded to two decimals.
func SizeKB(n int) float64 {
	return math.Round(float64(n)/1024*100) / 100
}

func ptr[T any](v T) *T {
	return &v
}
